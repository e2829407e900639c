package attendance

import (
	"context"
	"time"

	"attendbot/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockCamera implements Camera for testing
type MockCamera struct {
	mock.Mock
}

func (m *MockCamera) Capture(ctx context.Context) (models.PhotoHandle, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PhotoHandle), args.Error(1)
}

// MockGeolocator implements Geolocator for testing
type MockGeolocator struct {
	mock.Mock
}

func (m *MockGeolocator) CurrentLocation(ctx context.Context) (models.LocationReading, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.LocationReading), args.Error(1)
}

// MockPermissions implements Permissions for testing
type MockPermissions struct {
	mock.Mock
}

func (m *MockPermissions) Granted(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
