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

type ListMessageRequest struct {
	Page     uint64 `json:"page" form:"page" binding:"required"`
	PageSize uint64 `json:"pagesize" form:"pagesize" binding:"required"`
	Asc      bool   `json:"asc" form:"asc"`
}

type ListMessageResponse struct {
	List  []*types.Message `json:"list"`
	Total int64            `json:"total"`
}

func (s *HttpSrv) ListMessages(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req ListMessageRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewMessageLogic(c, s.Core).ListMessages(types.ListMessageOptions{
		SessionID: sessionID,
		Ascending: req.Asc,
	}, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, ListMessageResponse{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetMessage(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	messageID, exist := c.Params.Get("messageid")
	if !exist || messageID == "" {
		response.APIError(c, errors.New("api.GetMessage", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	msg, err := v1.NewMessageLogic(c, s.Core).GetMessage(sessionID, messageID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, msg)
}
