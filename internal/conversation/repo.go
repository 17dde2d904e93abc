package conversation

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns messages newest first; id breaks created_at ties so append order holds.
func (r *Repo) ListMessages(ctx context.Context, customerID string, f Filter) ([]Message, error) {
	q := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(f.Limit).
		Offset(f.Offset)

	if f.UserPhone != "" {
		q = q.Where("user_phone = ?", f.UserPhone)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

type Activity struct {
	UserPhone string
	CreatedAt time.Time
}

// ListActivityDesc returns (user_phone, created_at) for every message of a tenant, newest first.
func (r *Repo) ListActivityDesc(ctx context.Context, customerID string) ([]Activity, error) {
	var rows []Activity
	if err := r.db.WithContext(ctx).
		Model(&Message{}).
		Select("user_phone", "created_at").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) CountMessages(ctx context.Context, customerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, err
}
