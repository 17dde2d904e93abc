package tenant

import "time"

const (
	RoleAccountUser = "account_user"
	RoleGlobalAdmin = "global_admin"
)

// Tenant is an account holder. ID is the auth provider's user id.
type Tenant struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email           string    `gorm:"type:varchar(255);index" json:"email"`
	CompanyName     string    `gorm:"type:varchar(255)" json:"company_name"`
	Role            string    `gorm:"type:varchar(32);not null;default:account_user" json:"role"`
	GeneratedAPIKey string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"generated_api_key"`
	ManyChatAPIKey  string    `gorm:"column:manychat_api_key;type:varchar(512)" json:"manychat_api_key,omitempty"`
	ChatbotPrompt   string    `gorm:"type:text" json:"chatbot_prompt,omitempty"`
	FileStoreID     string    `gorm:"type:varchar(255)" json:"file_store_id,omitempty"`
	PlanID          *uint64   `json:"plan_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Tenant) TableName() string { return "profiles" }

// Resolved is the read-only projection the inbound pipeline needs.
type Resolved struct {
	ID                string `json:"id"`
	DeliveryToken     string `json:"delivery_token"`
	CustomInstruction string `json:"custom_instruction"`
	StoreID           string `json:"store_id"`
}

func (t *Tenant) Resolved() *Resolved {
	return &Resolved{
		ID:                t.ID,
		DeliveryToken:     t.ManyChatAPIKey,
		CustomInstruction: t.ChatbotPrompt,
		StoreID:           t.FileStoreID,
	}
}

// ProfileUpdate carries the fields a tenant may change; nil means unchanged.
type ProfileUpdate struct {
	CompanyName    *string `json:"company_name"`
	ManyChatAPIKey *string `json:"manychat_api_key"`
	ChatbotPrompt  *string `json:"chatbot_prompt"`
}
