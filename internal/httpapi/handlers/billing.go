package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/common"
)

func (h *Handler) Usage(c *gin.Context) {
	u, err := h.Billing.Usage(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, u)
}

func (h *Handler) Invoices(c *gin.Context) {
	recs, err := h.Billing.Invoices(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, recs)
}
