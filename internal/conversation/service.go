package conversation

import (
	"context"
	"errors"
	"strings"
)

var ErrMissingField = errors.New("conversation: tenant id, end user id, direction and content are required")

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Append writes one event. Storage errors are returned as is.
func (s *Service) Append(ctx context.Context, tenantID, endUserID string, direction Direction, content string) (*Message, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(endUserID) == "" || content == "" {
		return nil, ErrMissingField
	}
	if direction != DirectionInbound && direction != DirectionOutbound {
		return nil, ErrMissingField
	}

	m := &Message{
		CustomerID: tenantID,
		UserPhone:  endUserID,
		Direction:  direction,
		Content:    content,
	}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID string, f Filter) ([]Message, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListMessages(ctx, tenantID, f)
}

// ListConversations groups the tenant's log by end user. The scan is newest first, so the
// first row seen for a user is its last activity; every row bumps the count.
func (s *Service) ListConversations(ctx context.Context, tenantID string) ([]Conversation, error) {
	rows, err := s.repo.ListActivityDesc(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*Conversation)
	order := make([]string, 0)
	for _, row := range rows {
		conv, ok := byUser[row.UserPhone]
		if !ok {
			conv = &Conversation{UserPhone: row.UserPhone, LastMessageAt: row.CreatedAt}
			byUser[row.UserPhone] = conv
			order = append(order, row.UserPhone)
		}
		conv.MessageCount++
	}

	out := make([]Conversation, 0, len(order))
	for _, phone := range order {
		out = append(out, *byUser[phone])
	}
	return out, nil
}

func (s *Service) Count(ctx context.Context, tenantID string) (int64, error) {
	return s.repo.CountMessages(ctx, tenantID)
}
