// Package archive keeps an optional postgres record of accepted driver
// positions and route mutations. Failures are logged and never surface to
// the dashboard.
package archive

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"frost_dispatch/internal/models"
)

const writeTimeout = 3 * time.Second

// DefaultTrailLimit is how many positions RouteTrail returns when the caller
// does not ask for a number.
const DefaultTrailLimit = 200

// Store writes archive rows through gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RecordAssignment stores one route mutation attempt.
func (s *Store) RecordAssignment(ctx context.Context, rec models.AssignmentRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": rec.SessionID,
			"route_id":   rec.RouteID,
			"action":     rec.Action,
		}).Error("Failed to archive route mutation.")
	}
}

// RecordLocation stores one accepted driver position.
func (s *Store) RecordLocation(ctx context.Context, rec models.LocationHistory) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"admin_id": rec.AdminID,
			"route_id": rec.RouteID,
		}).Error("Failed to archive driver location.")
	}
}

// RouteTrail returns the most recent archived positions of a route, newest
// first. A limit below one means DefaultTrailLimit.
func (s *Store) RouteTrail(ctx context.Context, routeID uint, limit int) ([]models.LocationHistory, error) {
	if limit < 1 {
		limit = DefaultTrailLimit
	}
	out := []models.LocationHistory{}
	err := s.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Nop discards everything. It is used when archiving is disabled.
type Nop struct{}

func (Nop) RecordAssignment(context.Context, models.AssignmentRecord) {}

func (Nop) RecordLocation(context.Context, models.LocationHistory) {}

func (Nop) RouteTrail(context.Context, uint, int) ([]models.LocationHistory, error) {
	return []models.LocationHistory{}, nil
}

// Archive is the union of what the dashboard records and reads back.
type Archive interface {
	RecordAssignment(ctx context.Context, rec models.AssignmentRecord)
	RecordLocation(ctx context.Context, rec models.LocationHistory)
	RouteTrail(ctx context.Context, routeID uint, limit int) ([]models.LocationHistory, error)
}

var (
	_ Archive = (*Store)(nil)
	_ Archive = Nop{}
)
