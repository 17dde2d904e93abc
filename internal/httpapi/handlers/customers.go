package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/tenant"
)

type profileResp struct {
	*tenant.Tenant
	WebhookURL string `json:"webhook_url"`
}

func (h *Handler) GetMe(c *gin.Context) {
	uid := auth.UserID(c)
	t, err := h.Tenants.Get(c.Request.Context(), uid)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	url, err := h.Tenants.WebhookURL(c.Request.Context(), uid)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, profileResp{Tenant: t, WebhookURL: url})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req tenant.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	t, err := h.Tenants.UpdateProfile(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, t)
}

func (h *Handler) GetWebhookURL(c *gin.Context) {
	url, err := h.Tenants.WebhookURL(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, gin.H{"webhook_url": url})
}

func (h *Handler) GetChatbotPrompt(c *gin.Context) {
	p, err := h.Tenants.GetPrompt(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, gin.H{"chatbot_prompt": p})
}

type promptReq struct {
	ChatbotPrompt string `json:"chatbot_prompt"`
}

func (h *Handler) UpdateChatbotPrompt(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Tenants.UpdatePrompt(c.Request.Context(), auth.UserID(c), req.ChatbotPrompt); err != nil {
		h.serviceError(c, err)
		return
	}
	common.OK(c, gin.H{"chatbot_prompt": req.ChatbotPrompt})
}
