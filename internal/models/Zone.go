package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Zone is a geographic delivery area with its delivery price.
type Zone struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// TimeZone is a named delivery time-slot ("De 8:00 a 12:00"), not a UTC offset.
// StartTime and EndTime are "HH:MM" when the backend provides them.
type TimeZone struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// Ref points at a Zone or TimeZone. The backend serialises these references
// as a bare id, a bare name, or an embedded object depending on the endpoint.
type Ref struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts 3, "3", "Norte" and {"id":3,"name":"Norte"}.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	switch data[0] {
	case '{':
		type alias Ref
		var aux alias
		if err := json.Unmarshal(data, &aux); err != nil {
			return fmt.Errorf("ref object: %w", err)
		}
		*r = Ref(aux)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("ref string: %w", err)
		}
		s = strings.TrimSpace(s)
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			*r = Ref{ID: uint(id)}
			return nil
		}
		*r = Ref{Name: s}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("ref number: %w", err)
		}
		id, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("ref number %q: %w", n.String(), err)
		}
		*r = Ref{ID: uint(id)}
		return nil
	}
}

// IsZero reports whether the reference points nowhere.
func (r Ref) IsZero() bool { return r.ID == 0 && r.Name == "" }

// Matches compares by id when both sides carry one, otherwise by name (case-insensitive).
func (r Ref) Matches(id uint, name string) bool {
	if r.ID != 0 && id != 0 {
		return r.ID == id
	}
	if r.Name != "" && name != "" {
		return strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name))
	}
	return false
}

// Label is what the dashboard prints for the reference.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != 0 {
		return strconv.FormatUint(uint64(r.ID), 10)
	}
	return ""
}
