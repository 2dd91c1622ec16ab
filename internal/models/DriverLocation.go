package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DriverLocation is a live position pushed on the /admin-location namespace.
// Seq is optional; when the backend omits it ordering falls back to Timestamp.
type DriverLocation struct {
	AdminID   uint      `json:"adminId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	IsOnline  bool      `json:"isOnline"`
	Seq       uint64    `json:"seq,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts timestamps as RFC3339 strings (with or without a zone
// suffix) or as epoch milliseconds.
func (dl *DriverLocation) UnmarshalJSON(data []byte) error {
	type alias DriverLocation
	aux := &struct {
		Timestamp json.RawMessage `json:"timestamp"`
		*alias
	}{alias: (*alias)(dl)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := parseEventTime(aux.Timestamp)
	if err != nil {
		return err
	}
	dl.Timestamp = ts
	return nil
}

func parseEventTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", raw, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	var ts string
	if err := json.Unmarshal(raw, &ts); err != nil {
		return time.Time{}, err
	}
	if ts == "" {
		return time.Time{}, nil
	}
	if !(strings.HasSuffix(ts, "Z") || (len(ts) > 6 && strings.ContainsAny(ts[len(ts)-6:], "+-"))) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return t.UTC(), nil
}

// Watermark is the highest seq and the latest timestamp accepted so far for
// one driver. They are tracked apart so an event lacking either field never
// lowers the mark.
type Watermark struct {
	Seq  uint64
	Time time.Time
}

// Admits reports whether dl is newer than everything accepted so far. The seq
// decides when both sides have one, then the timestamp; an event that can be
// compared on neither is admitted.
func (w Watermark) Admits(dl DriverLocation) bool {
	if dl.Seq != 0 && w.Seq != 0 {
		return dl.Seq > w.Seq
	}
	if !dl.Timestamp.IsZero() && !w.Time.IsZero() {
		return dl.Timestamp.After(w.Time)
	}
	return true
}

// Advance raises the mark to cover dl.
func (w *Watermark) Advance(dl DriverLocation) {
	if dl.Seq > w.Seq {
		w.Seq = dl.Seq
	}
	if dl.Timestamp.After(w.Time) {
		w.Time = dl.Timestamp
	}
}
