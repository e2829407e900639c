package models

import (
	"fmt"
	"time"
)

// RecordType is the direction of an attendance event.
type RecordType string

const (
	CheckIn  RecordType = "check-in"
	CheckOut RecordType = "check-out"
)

func (t RecordType) Valid() bool {
	return t == CheckIn || t == CheckOut
}

// Label is the human form shown in lists ("Check In" / "Check Out").
func (t RecordType) Label() string {
	switch t {
	case CheckIn:
		return "Check In"
	case CheckOut:
		return "Check Out"
	default:
		return string(t)
	}
}

// PhotoHandle is an opaque reference to a captured image (a URI).
type PhotoHandle string

// LocationReading is a single fix from the geolocation collaborator.
type LocationReading struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
	Accuracy  float64 `validate:"gte=0"`
}

// Address renders the coordinates the way records store them.
func (l LocationReading) Address() string {
	return fmt.Sprintf("%.6f, %.6f", l.Latitude, l.Longitude)
}

// AttendanceRecord represents a submitted check-in or check-out
type AttendanceRecord struct {
	ID        int64
	User      string
	Type      RecordType
	Timestamp time.Time
	Photo     PhotoHandle
	Location  LocationReading
	Address   string
}
