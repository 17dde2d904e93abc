package billing

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/suPer8Hu/docchat/internal/tenant"
)

type Counter interface {
	Count(ctx context.Context, tenantID string) (int64, error)
}

type TenantGetter interface {
	Get(ctx context.Context, id string) (*tenant.Tenant, error)
}

type Service struct {
	db        *gorm.DB
	tenants   TenantGetter
	messages  Counter
	documents Counter
	defaults  Limits
}

func NewService(db *gorm.DB, tenants TenantGetter, messages, documents Counter, defaultRequests, defaultStorageMB int) *Service {
	return &Service{
		db:        db,
		tenants:   tenants,
		messages:  messages,
		documents: documents,
		defaults: Limits{
			MonthlyRequestLimit: defaultRequests,
			StorageLimitMB:      defaultStorageMB,
		},
	}
}

func (s *Service) Usage(ctx context.Context, tenantID string) (*Usage, error) {
	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.Count(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	limits := s.defaults
	if t.PlanID != nil {
		var p Plan
		err := s.db.WithContext(ctx).First(&p, "id = ?", *t.PlanID).Error
		switch {
		case err == nil:
			limits = Limits{
				MonthlyRequestLimit: p.MonthlyRequestLimit,
				StorageLimitMB:      p.StorageLimitMB,
				PlanName:            p.Name,
				PriceCents:          p.PriceCents,
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	return &Usage{
		CurrentUsage: CurrentUsage{Messages: msgs, Documents: docs},
		Limits:       limits,
	}, nil
}

// Invoices lists billing records, most recent period first.
func (s *Service) Invoices(ctx context.Context, tenantID string) ([]Record, error) {
	out := make([]Record, 0)
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", tenantID).
		Order("period_start DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
