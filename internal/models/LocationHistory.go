package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// LocationHistory archives every live driver position the dashboard accepted.
type LocationHistory struct {
	gorm.Model
	AdminID   uint      `json:"admin_id" gorm:"index"`
	RouteID   uint      `json:"route_id" gorm:"index"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsOnline  bool      `json:"is_online"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// AssignmentRecord is the audit trail of route mutations issued from the dashboard.
type AssignmentRecord struct {
	gorm.Model
	SessionID string        `json:"session_id" gorm:"index"`
	AdminID   uint          `json:"admin_id" gorm:"index"`
	RouteID   uint          `json:"route_id" gorm:"index"`
	Action    string        `json:"action"` // "assign", "create", "cancel", "remove_order"
	OrderIDs  pq.Int64Array `json:"order_ids" gorm:"type:bigint[]"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
}
