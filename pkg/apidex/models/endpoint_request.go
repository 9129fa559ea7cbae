package models

import (
	"time"

	"gorm.io/gorm"
)

// ReviewStatus is the outcome of admin review of a submission.
// It starts at pending and transitions exactly once, to approved or
// rejected. There is no way back.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// EndpointRequest represents a not-yet-reviewed submission proposing a new
// endpoint. ReviewedByID and ReviewedAt are both nil exactly while the
// request is pending.
type EndpointRequest struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Company      string         `gorm:"not null" json:"company"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `json:"description"`
	Protocol     string         `gorm:"not null" json:"protocol"`
	Address      string         `gorm:"not null" json:"address"`
	Ports        Ports          `gorm:"type:text" json:"ports"`
	IconURL      string         `json:"icon_url"`
	ReviewStatus ReviewStatus   `gorm:"type:varchar(20);default:'pending';index" json:"review_status"`
	SubmittedByID uint          `gorm:"not null;index" json:"submitted_by_id"`
	ReviewedByID *uint          `json:"reviewed_by_id"`
	ReviewedAt   *time.Time     `json:"reviewed_at"`

	// Relationships
	SubmittedBy User  `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	ReviewedBy  *User `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	Tags        []Tag `gorm:"many2many:endpoint_request_tags;" json:"tags,omitempty"`
}
