package conversation

import "time"

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Message is one append-only event of a tenant's conversation log.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID string    `gorm:"type:varchar(64);not null;index:idx_msg_customer_created,priority:1;index:idx_msg_customer_phone,priority:1" json:"customer_id"`
	UserPhone  string    `gorm:"type:varchar(128);not null;index:idx_msg_customer_phone,priority:2" json:"user_phone"`
	Direction  Direction `gorm:"type:varchar(16);not null" json:"direction"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index:idx_msg_customer_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// Conversation is derived on read, never stored.
type Conversation struct {
	UserPhone     string    `json:"user_phone"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

type Filter struct {
	UserPhone string
	Limit     int
	Offset    int
}
