package document

import "time"

const StatusProcessed = "processed"

type Document struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID          string    `gorm:"type:varchar(64);not null;index:idx_documents_owner_created,priority:1" json:"owner_id"`
	Filename         string    `gorm:"type:varchar(512);not null" json:"filename"`
	FilePath         string    `gorm:"type:varchar(1024);not null" json:"file_path"`
	ExternalFileName string    `gorm:"type:varchar(255)" json:"external_file_name,omitempty"`
	Status           string    `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt        time.Time `gorm:"index:idx_documents_owner_created,priority:2" json:"created_at"`
}

func (Document) TableName() string { return "documents" }
