package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/pipeline"
)

type incomingReq struct {
	UserID        string `json:"user_id"`
	FirstName     string `json:"first_name"`
	LastTextInput string `json:"last_text_input"`
	ClientAPIKey  string `json:"client_api_key"`
}

// Incoming acknowledges a messaging platform webhook. The answer is produced and
// sent in the background; nothing here waits on generation or delivery.
func (h *Handler) Incoming(c *gin.Context) {
	var req incomingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 10001, "invalid json")
		return
	}
	if req.ClientAPIKey == "" {
		req.ClientAPIKey = c.Query("client_api_key")
	}

	ev, err := pipeline.NewEvent(req.UserID, req.FirstName, req.LastTextInput, req.ClientAPIKey)
	if err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 10002, "user_id, last_text_input and client_api_key are required")
		return
	}

	if err := h.Dispatcher.Dispatch(c.Request.Context(), ev); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
			common.Fail(c, http.StatusServiceUnavailable, 50300, "busy, retry later")
			return
		}
		h.Log.Error().Err(err).Str("event_id", ev.ID).Msg("dispatch failed")
		common.Fail(c, http.StatusServiceUnavailable, 50301, "could not queue message")
		return
	}

	h.Log.Debug().Str("event_id", ev.ID).Str("end_user", ev.EndUserID).Msg("webhook accepted")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
