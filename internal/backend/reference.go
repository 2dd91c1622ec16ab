package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"frost_dispatch/internal/models"
)

// Zones fetches GET /zone.
func (c *Client) Zones(ctx context.Context, s Session) ([]models.Zone, error) {
	var raw json.RawMessage
	if err := c.call(ctx, s, "zone.list", http.MethodGet, "/zone", nil, nil, &raw); err != nil {
		return nil, err
	}
	zones, err := decodeList[models.Zone](raw)
	if err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	return zones, nil
}

// TimeZones fetches GET /timezone.
func (c *Client) TimeZones(ctx context.Context, s Session) ([]models.TimeZone, error) {
	var raw json.RawMessage
	if err := c.call(ctx, s, "timezone.list", http.MethodGet, "/timezone", nil, nil, &raw); err != nil {
		return nil, err
	}
	tzs, err := decodeList[models.TimeZone](raw)
	if err != nil {
		return nil, fmt.Errorf("decode timezones: %w", err)
	}
	return tzs, nil
}
