package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/common"
)

// ListCustomers is for global admins only; the router enforces the role.
func (h *Handler) ListCustomers(c *gin.Context) {
	all, err := h.Tenants.ListAll(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, all)
}
