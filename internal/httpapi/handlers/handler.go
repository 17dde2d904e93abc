package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/billing"
	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/conversation"
	"github.com/suPer8Hu/docchat/internal/document"
	"github.com/suPer8Hu/docchat/internal/pipeline"
	"github.com/suPer8Hu/docchat/internal/tenant"
)

// AuthProvider is the subset of the external auth API the handlers call.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string) (*auth.User, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
}

type Handler struct {
	Tenants       *tenant.Service
	Documents     *document.Service
	Conversations *conversation.Service
	Billing       *billing.Service
	Provider      AuthProvider
	Dispatcher    pipeline.Dispatcher
	Log           zerolog.Logger
}

// serviceError maps domain errors onto the response envelope. Anything unknown is a
// 500 carrying the error text.
func (h *Handler) serviceError(c *gin.Context, err error) {
	var ve *document.ValidationError
	switch {
	case errors.As(err, &ve):
		common.Fail(c, http.StatusBadRequest, 10003, ve.Reason)
	case errors.Is(err, tenant.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "profile not found")
	case errors.Is(err, document.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "document not found")
	case errors.Is(err, tenant.ErrInvalidDeliveryToken), errors.Is(err, tenant.ErrEmptyPrompt):
		common.Fail(c, http.StatusBadRequest, 10004, err.Error())
	default:
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		common.Fail(c, http.StatusInternalServerError, 20001, err.Error())
	}
}
