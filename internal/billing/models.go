package billing

import "time"

// Plan is a subscription tier a tenant can be attached to.
type Plan struct {
	ID                  uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                string `gorm:"type:varchar(128);not null" json:"name"`
	MonthlyRequestLimit int    `gorm:"not null" json:"monthly_request_limit"`
	StorageLimitMB      int    `gorm:"column:storage_limit_mb;not null" json:"storage_limit_mb"`
	PriceCents          int    `gorm:"not null" json:"price_cents"`
}

func (Plan) TableName() string { return "subscriptions" }

// Record is one billed period for a tenant.
type Record struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID  string    `gorm:"type:varchar(64);not null;index" json:"customer_id"`
	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`
	AmountCents int       `gorm:"not null" json:"amount_cents"`
	Status      string    `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Record) TableName() string { return "billing_records" }

type Limits struct {
	MonthlyRequestLimit int    `json:"monthly_request_limit"`
	StorageLimitMB      int    `json:"storage_limit_mb"`
	PlanName            string `json:"plan_name,omitempty"`
	PriceCents          int    `json:"price_cents,omitempty"`
}

type CurrentUsage struct {
	Messages  int64 `json:"messages"`
	Documents int64 `json:"documents"`
}

type Usage struct {
	CurrentUsage CurrentUsage `json:"current_usage"`
	Limits       Limits       `json:"limits"`
}
