package feeds

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/models"
)

// ReferenceSource is the slice of the backend client the lookups need.
type ReferenceSource interface {
	Zones(ctx context.Context, s backend.Session) ([]models.Zone, error)
	TimeZones(ctx context.Context, s backend.Session) ([]models.TimeZone, error)
}

// Reference holds the zone and time-slot lookup lists.
type Reference struct {
	src     ReferenceSource
	session backend.Session

	mu        sync.RWMutex
	zones     []models.Zone
	timeZones []models.TimeZone
	err       error
}

func NewReference(src ReferenceSource, s backend.Session) *Reference {
	return &Reference{src: src, session: s, zones: []models.Zone{}, timeZones: []models.TimeZone{}}
}

// Load fetches both lists. A failed list is left empty.
func (r *Reference) Load(ctx context.Context) error {
	zones, zErr := r.src.Zones(ctx, r.session)
	if zErr != nil {
		logrus.WithError(zErr).WithField("session_id", r.session.ID).Error("Zone lookup failed.")
		zones = []models.Zone{}
	}
	tzs, tErr := r.src.TimeZones(ctx, r.session)
	if tErr != nil {
		logrus.WithError(tErr).WithField("session_id", r.session.ID).Error("Time-slot lookup failed.")
		tzs = []models.TimeZone{}
	}

	err := zErr
	if err == nil {
		err = tErr
	}

	r.mu.Lock()
	r.zones, r.timeZones, r.err = zones, tzs, err
	r.mu.Unlock()
	return err
}

// Zones returns a copy of the zone list and the last load error.
func (r *Reference) Zones() ([]models.Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Zone(nil), r.zones...), r.err
}

// TimeZones returns a copy of the time-slot list and the last load error.
func (r *Reference) TimeZones() ([]models.TimeZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.TimeZone(nil), r.timeZones...), r.err
}

func (r *Reference) Zone(id uint) (models.Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, z := range r.zones {
		if z.ID == id {
			return z, true
		}
	}
	return models.Zone{}, false
}

func (r *Reference) TimeZone(id uint) (models.TimeZone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tz := range r.timeZones {
		if tz.ID == id {
			return tz, true
		}
	}
	return models.TimeZone{}, false
}
