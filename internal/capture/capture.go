// Package capture holds the photo and location waiting to be submitted.
package capture

import "attendbot/internal/models"

// Session is the pending (photo, location) pair. The zero value is empty.
type Session struct {
	photo    models.PhotoHandle
	hasPhoto bool
	location models.LocationReading
	hasLoc   bool
}

// SetPhoto replaces any existing photo; the location is kept.
func (c *Session) SetPhoto(photo models.PhotoHandle) {
	c.photo = photo
	c.hasPhoto = true
}

// SetLocation replaces any existing reading; the photo is kept.
func (c *Session) SetLocation(loc models.LocationReading) {
	c.location = loc
	c.hasLoc = true
}

// Clear resets both fields, for a retake or after submission.
func (c *Session) Clear() {
	*c = Session{}
}

func (c *Session) IsComplete() bool {
	return c.hasPhoto && c.hasLoc
}

func (c *Session) Photo() (models.PhotoHandle, bool) {
	return c.photo, c.hasPhoto
}

func (c *Session) Location() (models.LocationReading, bool) {
	return c.location, c.hasLoc
}
