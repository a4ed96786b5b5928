package models

// ActivityLog records every mutation made through the API, the CLI or the
// scheduler.
type ActivityLog struct {
	Base
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null;index" json:"resource_type"`
	ResourceID   uint   `json:"resource_id"`
	Source       string `gorm:"not null" json:"source"`
	Changes      string `json:"changes,omitempty"`
}
