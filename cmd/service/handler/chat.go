package handler

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	v1 "github.com/insightpilot/insightpilot/app/logic/v1"
	"github.com/insightpilot/insightpilot/app/response"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/utils"
)

type ChatMessageRequest struct {
	Content     string                   `json:"content" form:"content" binding:"required"`
	ContextRefs types.MessageContextRefs `json:"context_refs" form:"context_refs"`
	Count       int                      `json:"count" form:"count"`
	Temperature float64                  `json:"temperature" form:"temperature"`
}

// sseChunkWriter streams chunks as server-sent events. Headers go out
// with the first chunk so that pre-stream failures can still use the
// normal error envelope.
type sseChunkWriter struct {
	c     *gin.Context
	wrote bool
}

func (w *sseChunkWriter) WriteChunk(chunk types.Chunk) error {
	if !w.wrote {
		w.c.Header("Content-Type", "text/event-stream")
		w.c.Header("Cache-Control", "no-cache")
		w.c.Header("Connection", "keep-alive")
		w.wrote = true
	}

	raw, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(w.c.Writer, "event: %s\ndata: %s\n\n", chunk.Type, raw); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}

// CreateChatMessage runs one chat exchange over SSE.
func (s *HttpSrv) CreateChatMessage(c *gin.Context) {
	sessionID, err := injectSessionID(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req ChatMessageRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	// the request context, not the gin context: client disconnects must
	// cancel the provider stream
	writer := &sseChunkWriter{c: c}
	err = v1.NewChatLogic(c.Request.Context(), s.Core).StreamChat(v1.ChatRequest{
		SessionID:   sessionID,
		Content:     req.Content,
		ContextRefs: req.ContextRefs,
		Count:       req.Count,
		Temperature: req.Temperature,
	}, writer)
	if err != nil && !writer.wrote {
		response.APIError(c, err)
	}
}
