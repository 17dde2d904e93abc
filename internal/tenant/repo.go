package tenant

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("tenant not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, t *Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repo) GetByGeneratedKey(ctx context.Context, key string) (*Tenant, error) {
	return r.first(ctx, "generated_api_key = ?", key)
}

func (r *Repo) first(ctx context.Context, query string, arg any) (*Tenant, error) {
	var t Tenant
	if err := r.db.WithContext(ctx).Where(query, arg).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Tenant{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStoreIDIfEmpty writes storeID only while the column is still empty.
// It reports whether this call won.
func (r *Repo) SetStoreIDIfEmpty(ctx context.Context, id, storeID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Tenant{}).
		Where("id = ? AND (file_store_id IS NULL OR file_store_id = '')", id).
		Update("file_store_id", storeID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
