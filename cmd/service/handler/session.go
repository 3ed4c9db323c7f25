package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/insightpilot/insightpilot/app/logic/v1"
	"github.com/insightpilot/insightpilot/app/response"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

func injectSessionID(c *gin.Context) (string, error) {
	sessionID, exist := c.Params.Get("session")
	if !exist || sessionID == "" {
		return "", errors.New("api.injectSessionID", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	return sessionID, nil
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *HttpSrv) CreateSession(c *gin.Context) {
	var (
		err error
		req CreateSessionRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	sessionID, err := v1.NewSessionLogic(c, s.Core).CreateSession(req.Title)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, CreateSessionResponse{
		SessionID: sessionID,
	})
}

type ListSessionRequest struct {
	Page     uint64 `json:"page" form:"page" binding:"required"`
	PageSize uint64 `json:"pagesize" form:"pagesize" binding:"required"`
}

type ListSessionResponse struct {
	List  []types.Session `json:"list"`
	Total int64           `json:"total"`
}

func (s *HttpSrv) ListSessions(c *gin.Context) {
	var (
		err error
		req ListSessionRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewSessionLogic(c, s.Core).ListSessions(req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, ListSessionResponse{
		List:  list,
		Total: total,
	})
}

type RenameSessionRequest struct {
	Title string `json:"title" form:"title" binding:"required"`
}

func (s *HttpSrv) RenameSession(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req RenameSessionRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewSessionLogic(c, s.Core).RenameSession(sessionID, req.Title); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) ArchiveSession(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewSessionLogic(c, s.Core).ArchiveSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteSession(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewSessionLogic(c, s.Core).DeleteSession(sessionID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
