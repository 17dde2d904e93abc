package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/suPer8Hu/docchat/internal/ai"
)

var (
	ErrInvalidDeliveryToken = errors.New("invalid manychat api key")
	ErrEmptyPrompt          = errors.New("chatbot prompt must not be empty")
)

// TokenValidator checks a delivery token against the messaging platform.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) bool
}

type Service struct {
	repo          *Repo
	tokens        TokenValidator
	inv           Invalidator
	publicBaseURL string
}

// NewService wires the tenant service. tokens and inv may be nil.
func NewService(repo *Repo, tokens TokenValidator, inv Invalidator, publicBaseURL string) *Service {
	return &Service{
		repo:          repo,
		tokens:        tokens,
		inv:           inv,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Create inserts the profile of a freshly signed-up account.
func (s *Service) Create(ctx context.Context, id, email, companyName string) (*Tenant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("create tenant: empty id")
	}
	t := &Tenant{
		ID:              id,
		Email:           email,
		CompanyName:     strings.TrimSpace(companyName),
		Role:            RoleAccountUser,
		GeneratedAPIKey: uuid.NewString(),
		ChatbotPrompt:   ai.DefaultInstruction,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Tenant, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*Tenant, error) {
	fields := map[string]any{}
	if in.CompanyName != nil {
		fields["company_name"] = strings.TrimSpace(*in.CompanyName)
	}
	if in.ManyChatAPIKey != nil {
		token := strings.TrimSpace(*in.ManyChatAPIKey)
		if token != "" && s.tokens != nil && !s.tokens.ValidateToken(ctx, token) {
			return nil, ErrInvalidDeliveryToken
		}
		fields["manychat_api_key"] = token
	}
	if in.ChatbotPrompt != nil {
		fields["chatbot_prompt"] = *in.ChatbotPrompt
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, t)
	return t, nil
}

// GetPrompt returns the custom instruction, or the default one when unset.
func (s *Service) GetPrompt(ctx context.Context, id string) (string, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(t.ChatbotPrompt) == "" {
		return ai.DefaultInstruction, nil
	}
	return t.ChatbotPrompt, nil
}

func (s *Service) UpdatePrompt(ctx context.Context, id, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	_, err := s.UpdateProfile(ctx, id, ProfileUpdate{ChatbotPrompt: &prompt})
	return err
}

// WebhookURL is the address a tenant pastes into the messaging platform.
func (s *Service) WebhookURL(ctx context.Context, id string) (string, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	credential := t.GeneratedAPIKey
	if credential == "" {
		credential = t.ID
	}
	return s.publicBaseURL + "/api/v1/webhook/incoming?client_api_key=" + url.QueryEscape(credential), nil
}

// SetStoreIDIfEmpty persists a document store id unless another writer got there first.
func (s *Service) SetStoreIDIfEmpty(ctx context.Context, id, storeID string) (bool, error) {
	won, err := s.repo.SetStoreIDIfEmpty(ctx, id, storeID)
	if err != nil {
		return false, err
	}
	if won {
		if t, err := s.repo.GetByID(ctx, id); err == nil {
			s.invalidate(ctx, t)
		}
	}
	return won, nil
}

func (s *Service) invalidate(ctx context.Context, t *Tenant) {
	if s.inv != nil {
		s.inv.Invalidate(ctx, t)
	}
}
