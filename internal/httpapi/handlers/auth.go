package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/common"
)

type signupReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func providerMessage(err error) string {
	var pe *auth.ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.CompanyName) == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email, password and company_name required")
		return
	}

	ctx := c.Request.Context()
	u, err := h.Provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, providerMessage(err))
		return
	}
	if _, err := h.Tenants.Create(ctx, u.ID, req.Email, req.CompanyName); err != nil {
		h.Log.Error().Err(err).Str("user_id", u.ID).Msg("profile create failed after signup")
		common.Fail(c, http.StatusBadRequest, 10011, err.Error())
		return
	}

	common.OK(c, gin.H{"message": "User created successfully", "user_id": u.ID})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email and password required")
		return
	}

	s, err := h.Provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40103, providerMessage(err))
		return
	}
	common.OK(c, gin.H{
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
		"user_id":       s.User.ID,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token != "" && token != header {
		if err := h.Provider.SignOut(c.Request.Context(), token); err != nil {
			common.Fail(c, http.StatusBadRequest, 10012, providerMessage(err))
			return
		}
	}
	common.OK(c, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) PasswordReset(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		var body struct {
			Email string `json:"email"`
		}
		_ = c.ShouldBindJSON(&body)
		email = strings.TrimSpace(body.Email)
	}
	if email == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email required")
		return
	}

	if err := h.Provider.ResetPassword(c.Request.Context(), email); err != nil {
		common.Fail(c, http.StatusBadRequest, 10013, providerMessage(err))
		return
	}
	common.OK(c, gin.H{"message": "Password reset email sent"})
}
