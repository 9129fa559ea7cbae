package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag represents a category label attachable to endpoints and submissions.
// Tags are shared reference data: requests and endpoints point at them but
// never own them.
type Tag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"uniqueIndex;not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`
	Color     string         `gorm:"not null" json:"color"`

	// Relationships
	Endpoints []Endpoint        `gorm:"many2many:endpoint_tags;" json:"endpoints,omitempty"`
	Requests  []EndpointRequest `gorm:"many2many:endpoint_request_tags;" json:"requests,omitempty"`
}
