// Package store keeps submitted attendance records in memory.
package store

import (
	"errors"
	"fmt"
	"time"

	"attendbot/internal/capture"
	"attendbot/internal/models"
)

var (
	ErrIncompleteCapture = errors.New("photo and location are required before submitting")
	ErrInvalidRecordType = errors.New("invalid attendance type")
)

// Store is append-only. Records are kept in insertion order and handed out newest first.
type Store struct {
	now     func() time.Time
	records []models.AttendanceRecord
	lastID  int64
}

// New creates an empty store. A nil clock means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Append turns a complete capture into a record. Nothing is stored on error.
func (s *Store) Append(typ models.RecordType, c *capture.Session, actor string) (models.AttendanceRecord, error) {
	if !typ.Valid() {
		return models.AttendanceRecord{}, fmt.Errorf("%w: %q", ErrInvalidRecordType, typ)
	}
	if c == nil || !c.IsComplete() {
		return models.AttendanceRecord{}, ErrIncompleteCapture
	}

	photo, _ := c.Photo()
	loc, _ := c.Location()
	ts := s.now()

	record := models.AttendanceRecord{
		ID:        s.nextID(ts),
		User:      actor,
		Type:      typ,
		Timestamp: ts,
		Photo:     photo,
		Location:  loc,
		Address:   loc.Address(),
	}
	s.records = append(s.records, record)
	return record, nil
}

// nextID derives the id from the capture instant in milliseconds, bumped past
// the previous id when two records land in the same millisecond.
func (s *Store) nextID(ts time.Time) int64 {
	id := ts.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// All returns a copy of every record, most recent first.
func (s *Store) All() []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, len(s.records))
	for i, r := range s.records {
		out[len(s.records)-1-i] = r
	}
	return out
}

func (s *Store) Len() int {
	return len(s.records)
}
