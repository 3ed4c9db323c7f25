package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/insightpilot/insightpilot/app/logic/v1"
	"github.com/insightpilot/insightpilot/app/response"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

type AddContextItemRequest struct {
	ItemType types.ContextItemType `json:"item_type" form:"item_type" binding:"required"`
	ItemID   string                `json:"item_id" form:"item_id" binding:"required"`
}

func (s *HttpSrv) AddContextItem(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req AddContextItemRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewContextLogic(c, s.Core).Add(sessionID, req.ItemType, req.ItemID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type RemoveContextItemRequest struct {
	ItemType types.ContextItemType `json:"item_type" form:"item_type" binding:"required"`
	ItemID   string                `json:"item_id" form:"item_id" binding:"required"`
}

func (s *HttpSrv) RemoveContextItem(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req RemoveContextItemRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewContextLogic(c, s.Core).Remove(sessionID, req.ItemType, req.ItemID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type ClearContextRequest struct {
	ItemType types.ContextItemType `json:"item_type" form:"item_type"`
}

func (s *HttpSrv) ClearContext(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req ClearContextRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewContextLogic(c, s.Core).Clear(sessionID, req.ItemType); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type GetContextRequest struct {
	WithContent bool                `json:"with_content" form:"with_content"`
	WithStats   bool                `json:"with_stats" form:"with_stats"`
	SortBy      types.ContextSortBy `json:"sort_by" form:"sort_by"`
	Query       string              `json:"query" form:"query"`
}

func (s *HttpSrv) GetContext(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req GetContextRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	state, err := v1.NewContextLogic(c, s.Core).Hydrate(sessionID, types.HydrateOptions{
		WithContent: req.WithContent,
		WithStats:   req.WithStats,
		SortBy:      req.SortBy,
		Query:       req.Query,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, state)
}

func (s *HttpSrv) ValidateContext(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewContextLogic(c, s.Core).Validate(sessionID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, result)
}
