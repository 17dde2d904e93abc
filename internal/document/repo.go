package document

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("document not found")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, d *Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	var out []Document
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetForOwner(ctx context.Context, ownerID string, id uint64) (*Document, error) {
	var d Document
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) Delete(ctx context.Context, ownerID string, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Document{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}
