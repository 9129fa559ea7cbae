package models

import (
	"time"

	"gorm.io/gorm"
)

// EndpointStatus is the operational visibility state of a published entry.
// Independent of request review state.
type EndpointStatus string

const (
	EndpointStatusActive     EndpointStatus = "active"
	EndpointStatusInactive   EndpointStatus = "inactive"
	EndpointStatusDeprecated EndpointStatus = "deprecated"
)

// Protocol values accepted for endpoints and submissions
const (
	ProtocolHTTP      = "HTTP"
	ProtocolHTTPS     = "HTTPS"
	ProtocolGRPC      = "gRPC"
	ProtocolWebSocket = "WebSocket"
	ProtocolTCP       = "TCP"
	ProtocolUDP       = "UDP"
)

// Protocols lists every accepted protocol value
func Protocols() []string {
	return []string{
		ProtocolHTTP,
		ProtocolHTTPS,
		ProtocolGRPC,
		ProtocolWebSocket,
		ProtocolTCP,
		ProtocolUDP,
	}
}

// Endpoint represents a published, browsable entry in the registry
type Endpoint struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Company     string         `gorm:"not null" json:"company"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Protocol    string         `gorm:"not null" json:"protocol"`
	Address     string         `gorm:"not null" json:"address"`
	Ports       Ports          `gorm:"type:text" json:"ports"`
	IconURL     string         `json:"icon_url"`
	Status      EndpointStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	CreatedByID uint           `gorm:"not null" json:"created_by_id"`

	// Relationships
	CreatedBy User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Tags      []Tag `gorm:"many2many:endpoint_tags;" json:"tags,omitempty"`
}
