package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/insightpilot/insightpilot/app/logic/v1"
	"github.com/insightpilot/insightpilot/app/response"
	"github.com/insightpilot/insightpilot/pkg/errors"
	"github.com/insightpilot/insightpilot/pkg/i18n"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

type SessionUsageRequest struct {
	Start int64 `json:"start" form:"start"`
	End   int64 `json:"end" form:"end"`
}

func (s *HttpSrv) GetSessionUsage(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req SessionUsageRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	var start, end time.Time
	if req.Start > 0 {
		start = time.Unix(req.Start, 0)
	}
	if req.End > 0 {
		end = time.Unix(req.End, 0)
	}

	usage, err := v1.NewStatsLogic(c, s.Core).SessionUsage(sessionID, start, end)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, usage)
}

func (s *HttpSrv) GetItemStats(c *gin.Context) {
	itemType, _ := c.Params.Get("type")
	itemID, exist := c.Params.Get("itemid")
	if !exist || itemID == "" {
		response.APIError(c, errors.New("api.GetItemStats", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	stats, err := v1.NewStatsLogic(c, s.Core).ItemStats(types.ContextItemType(itemType), itemID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, stats)
}

func (s *HttpSrv) GetBudgetStatus(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	status, err := v1.NewStatsLogic(c, s.Core).BudgetStatus(sessionID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, status)
}

type BudgetOptimizeRequest struct {
	TargetLimit int `json:"target_limit" form:"target_limit"`
}

func (s *HttpSrv) OptimizeBudget(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req BudgetOptimizeRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewStatsLogic(c, s.Core).BudgetOptimize(sessionID, req.TargetLimit)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, result)
}
