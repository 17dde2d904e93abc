package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/conversation"
)

func (h *Handler) ListMessages(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			common.Fail(c, http.StatusBadRequest, 10002, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			common.Fail(c, http.StatusBadRequest, 10002, "offset must be >= 0")
			return
		}
		offset = n
	}

	msgs, err := h.Conversations.ListByTenant(c.Request.Context(), auth.UserID(c), conversation.Filter{
		UserPhone: c.Query("user_phone"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, msgs)
}

func (h *Handler) ListConversations(c *gin.Context) {
	convs, err := h.Conversations.ListConversations(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, convs)
}
