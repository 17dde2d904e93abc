package tenant

import (
	"context"
	"errors"
	"strings"
)

type Resolver interface {
	Resolve(ctx context.Context, credential string) (*Resolved, error)
}

type strategy struct {
	name string
	find func(ctx context.Context, credential string) (*Tenant, error)
}

// Directory maps a routing credential to a tenant. Strategies run in order and
// the first match wins: the generated API key first, then the tenant id itself.
type Directory struct {
	strategies []strategy
}

func NewDirectory(repo *Repo) *Directory {
	return &Directory{
		strategies: []strategy{
			{name: "generated_api_key", find: repo.GetByGeneratedKey},
			{name: "id", find: repo.GetByID},
		},
	}
}

func (d *Directory) Resolve(ctx context.Context, credential string) (*Resolved, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrNotFound
	}
	for _, s := range d.strategies {
		t, err := s.find(ctx, credential)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t.Resolved(), nil
	}
	return nil, ErrNotFound
}
