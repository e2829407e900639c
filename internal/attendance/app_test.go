package attendance

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"attendbot/internal/directory"
	"attendbot/internal/models"
	"attendbot/internal/query"
	"attendbot/internal/session"
	"attendbot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	directory.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var office = models.LocationReading{Latitude: -6.175392, Longitude: 106.827153, Accuracy: 12}

func newApp(t *testing.T) (*App, *fixedClock) {
	t.Helper()
	dir, err := directory.New(directory.Demo())
	require.NoError(t, err)

	clock := &fixedClock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	app := New(dir, Options{Now: clock.Now})

	perms := &MockPermissions{}
	perms.On("Granted", mock.Anything).Return(true, nil)
	require.NoError(t, app.RequestPermissions(context.Background(), perms))
	return app, clock
}

func camera(photo models.PhotoHandle, err error) *MockCamera {
	cam := &MockCamera{}
	cam.On("Capture", mock.Anything).Return(photo, err)
	return cam
}

func geolocator(loc models.LocationReading, err error) *MockGeolocator {
	geo := &MockGeolocator{}
	geo.On("CurrentLocation", mock.Anything).Return(loc, err)
	return geo
}

func login(t *testing.T, app *App, username, password string) *session.Session {
	t.Helper()
	s, err := app.Login(username, password)
	require.NoError(t, err)
	return s
}

func TestRequestPermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("Should close every screen while permissions are denied", func(t *testing.T) {
		dir, err := directory.New(directory.Demo())
		require.NoError(t, err)
		app := New(dir, Options{})

		perms := &MockPermissions{}
		perms.On("Granted", mock.Anything).Return(false, nil)

		assert.ErrorIs(t, app.RequestPermissions(ctx, perms), ErrPermissionDenied)
		_, err = app.Login("john", "john123")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		_, err = app.Dashboard(query.Params{})
		assert.ErrorIs(t, err, ErrPermissionDenied)
		_, err = app.Recent(RecentLimit)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("Should close the gate when the check itself fails", func(t *testing.T) {
		app, _ := newApp(t)
		perms := &MockPermissions{}
		perms.On("Granted", mock.Anything).Return(false, errors.New("prompt dismissed"))

		err := app.RequestPermissions(ctx, perms)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt dismissed")

		_, err = app.Login("john", "john123")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("Should close capture screens when permissions are revoked mid-session", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")

		perms := &MockPermissions{}
		perms.On("Granted", mock.Anything).Return(false, nil)
		_ = app.RequestPermissions(ctx, perms)

		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestLoginLogout(t *testing.T) {
	t.Run("Should open an employee session on the employee view", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")

		assert.Equal(t, models.RoleEmployee, s.Role())
		assert.Equal(t, models.ViewEmployee, s.View())
		assert.Same(t, s, app.Session())
	})

	t.Run("Should reject bad credentials without opening a session", func(t *testing.T) {
		app, _ := newApp(t)
		_, err := app.Login("john", "wrong")
		assert.ErrorIs(t, err, session.ErrInvalidCredentials)
		assert.Nil(t, app.Session())
	})

	t.Run("Should refuse a second login until logout", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")

		_, err := app.Login("admin", "admin123")
		assert.ErrorIs(t, err, ErrAlreadyLoggedIn)

		app.Logout()
		assert.Nil(t, app.Session())
		s := login(t, app, "admin", "admin123")
		assert.Equal(t, models.ViewAdmin, s.View())
	})

	t.Run("Should discard an unsubmitted capture on logout", func(t *testing.T) {
		app, _ := newApp(t)
		ctx := context.Background()
		login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)

		app.Logout()
		s := login(t, app, "john", "john123")
		_, ok := s.Capture().Photo()
		assert.False(t, ok)
	})

	t.Run("Should allow logout without a session", func(t *testing.T) {
		app, _ := newApp(t)
		assert.NotPanics(t, app.Logout)
	})
}

func TestTakePhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("Should store the captured photo", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")

		photo, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)
		assert.Equal(t, models.PhotoHandle("file:///p.jpg"), photo)

		got, ok := s.Capture().Photo()
		assert.True(t, ok)
		assert.Equal(t, photo, got)
	})

	t.Run("Should surface the camera's reason and keep the previous photo", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///first.jpg", nil))
		require.NoError(t, err)

		_, err = app.TakePhoto(ctx, camera("", errors.New("camera busy")))
		var captureErr *CaptureError
		require.ErrorAs(t, err, &captureErr)
		assert.Contains(t, err.Error(), "camera busy")

		got, _ := s.Capture().Photo()
		assert.Equal(t, models.PhotoHandle("file:///first.jpg"), got)
	})

	t.Run("Should leave the capture untouched when cancelled", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := app.TakePhoto(cancelled, camera("file:///late.jpg", nil))
		require.ErrorIs(t, err, context.Canceled)

		var captureErr *CaptureError
		assert.False(t, errors.As(err, &captureErr))
		_, ok := s.Capture().Photo()
		assert.False(t, ok)
	})

	t.Run("Should treat an empty handle as a failed capture", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")

		_, err := app.TakePhoto(ctx, camera("", nil))
		var captureErr *CaptureError
		assert.ErrorAs(t, err, &captureErr)
	})

	t.Run("Should require a login and the attendance view", func(t *testing.T) {
		app, _ := newApp(t)
		_, err := app.TakePhoto(ctx, camera("x", nil))
		assert.ErrorIs(t, err, ErrNotLoggedIn)

		login(t, app, "admin", "admin123")
		_, err = app.TakePhoto(ctx, camera("x", nil))
		assert.ErrorIs(t, err, ErrEmployeeViewRequired)
	})
}

func TestLocate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should store a valid reading", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")

		loc, err := app.Locate(ctx, geolocator(office, nil))
		require.NoError(t, err)
		assert.Equal(t, office, loc)

		got, ok := s.Capture().Location()
		assert.True(t, ok)
		assert.Equal(t, office, got)
	})

	t.Run("Should surface the geolocator's reason", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")

		_, err := app.Locate(ctx, geolocator(models.LocationReading{}, errors.New("permission denied")))
		var locErr *LocationError
		require.ErrorAs(t, err, &locErr)
		assert.Contains(t, err.Error(), "permission denied")

		_, ok := s.Capture().Location()
		assert.False(t, ok)
	})

	t.Run("Should reject out of range readings", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")

		bad := []models.LocationReading{
			{Latitude: 91, Longitude: 0},
			{Latitude: 0, Longitude: -181},
			{Latitude: 0, Longitude: 0, Accuracy: -1},
		}
		for _, loc := range bad {
			_, err := app.Locate(ctx, geolocator(loc, nil))
			var locErr *LocationError
			assert.ErrorAs(t, err, &locErr, "%+v", loc)
		}
		_, ok := s.Capture().Location()
		assert.False(t, ok)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse to submit without a photo and not ask for a location", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")
		geo := &MockGeolocator{}

		_, err := app.Submit(ctx, models.CheckIn, geo)
		assert.ErrorIs(t, err, store.ErrIncompleteCapture)
		geo.AssertNotCalled(t, "CurrentLocation", mock.Anything)
	})

	t.Run("Should refuse a photo without a location when no source is given", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)

		_, err = app.Submit(ctx, models.CheckIn, nil)
		assert.ErrorIs(t, err, store.ErrIncompleteCapture)

		admin := adminView(t, app)
		assert.Empty(t, admin.Records)
	})

	t.Run("Should fetch a missing location before recording", func(t *testing.T) {
		app, clock := newApp(t)
		s := login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)
		geo := geolocator(office, nil)

		rec, err := app.Submit(ctx, models.CheckIn, geo)
		require.NoError(t, err)

		geo.AssertNumberOfCalls(t, "CurrentLocation", 1)
		assert.Equal(t, "John Doe", rec.User)
		assert.Equal(t, models.CheckIn, rec.Type)
		assert.Equal(t, clock.Now(), rec.Timestamp)
		assert.Equal(t, "-6.175392, 106.827153", rec.Address)
		assert.Equal(t, office, rec.Location)
		assert.False(t, s.Capture().IsComplete())
		_, ok := s.Capture().Photo()
		assert.False(t, ok)
	})

	t.Run("Should reuse a pre-fetched location", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)
		_, err = app.Locate(ctx, geolocator(office, nil))
		require.NoError(t, err)
		geo := &MockGeolocator{}

		_, err = app.Submit(ctx, models.CheckOut, geo)
		require.NoError(t, err)
		geo.AssertNotCalled(t, "CurrentLocation", mock.Anything)
	})

	t.Run("Should record nothing when the location fetch fails", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)

		_, err = app.Submit(ctx, models.CheckIn, geolocator(models.LocationReading{}, errors.New("signal unavailable")))
		var locErr *LocationError
		require.ErrorAs(t, err, &locErr)
		assert.Contains(t, err.Error(), "signal unavailable")

		_, ok := s.Capture().Photo()
		assert.True(t, ok, "photo is kept for another attempt")
		assert.False(t, s.Capture().IsComplete())

		app.Logout()
		assert.Empty(t, adminView(t, app).Records)
	})

	t.Run("Should reject an unknown type before touching the capture", func(t *testing.T) {
		app, _ := newApp(t)
		s := login(t, app, "john", "john123")
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)

		_, err = app.Submit(ctx, models.RecordType("break"), geolocator(office, nil))
		assert.ErrorIs(t, err, store.ErrInvalidRecordType)
		_, ok := s.Capture().Photo()
		assert.True(t, ok)
	})

	t.Run("Should let an admin record attendance from the attendance view", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "admin", "admin123")
		require.NoError(t, app.SwitchView(models.ViewEmployee))

		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)
		rec, err := app.Submit(ctx, models.CheckIn, geolocator(office, nil))
		require.NoError(t, err)
		assert.Equal(t, "Admin User", rec.User)
	})
}

func TestRetake(t *testing.T) {
	ctx := context.Background()
	app, _ := newApp(t)
	s := login(t, app, "john", "john123")
	_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
	require.NoError(t, err)
	_, err = app.Locate(ctx, geolocator(office, nil))
	require.NoError(t, err)

	require.NoError(t, app.Retake())
	assert.False(t, s.Capture().IsComplete())
	_, ok := s.Capture().Photo()
	assert.False(t, ok)
}

// adminView logs in as admin when nobody is logged in and returns the unfiltered dashboard.
func adminView(t *testing.T, app *App) Dashboard {
	t.Helper()
	if app.Session() == nil {
		login(t, app, "admin", "admin123")
	}
	if s := app.Session(); s.View() != models.ViewAdmin {
		app.Logout()
		login(t, app, "admin", "admin123")
	}
	d, err := app.Dashboard(query.Params{})
	require.NoError(t, err)
	return d
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Should follow the John check-in scenario", func(t *testing.T) {
		app, _ := newApp(t)

		s := login(t, app, "john", "john123")
		assert.Equal(t, models.RoleEmployee, s.Role())
		assert.Equal(t, models.ViewEmployee, s.View())

		_, err := app.TakePhoto(ctx, camera("file:///john.jpg", nil))
		require.NoError(t, err)
		_, err = app.Locate(ctx, geolocator(office, nil))
		require.NoError(t, err)
		_, err = app.Submit(ctx, models.CheckIn, nil)
		require.NoError(t, err)
		app.Logout()

		admin := login(t, app, "admin", "admin123")
		assert.Equal(t, models.ViewAdmin, admin.View())

		d, err := app.Dashboard(query.Params{Department: "Sales", Range: query.RangeToday})
		require.NoError(t, err)
		require.Len(t, d.Records, 1)
		assert.Equal(t, "John Doe", d.Records[0].User)
		assert.Equal(t, models.CheckIn, d.Records[0].Type)
		assert.Equal(t, query.Statistics{Total: 1, CheckIns: 1, Employees: 1}, d.Stats)

		d, err = app.Dashboard(query.Params{Department: "Marketing", Range: query.RangeToday})
		require.NoError(t, err)
		assert.Empty(t, d.Records)
		assert.Equal(t, query.Statistics{}, d.Stats)
	})

	t.Run("Should evaluate today against the device clock", func(t *testing.T) {
		app, clock := newApp(t)
		login(t, app, "jane", "jane123")
		_, err := app.TakePhoto(ctx, camera("file:///jane.jpg", nil))
		require.NoError(t, err)
		_, err = app.Submit(ctx, models.CheckIn, geolocator(office, nil))
		require.NoError(t, err)
		app.Logout()

		clock.Advance(24 * time.Hour)
		login(t, app, "admin", "admin123")

		d, err := app.Dashboard(query.Params{Range: query.RangeToday})
		require.NoError(t, err)
		assert.Empty(t, d.Records)

		d, err = app.Dashboard(query.Params{Range: query.RangeWeek})
		require.NoError(t, err)
		assert.Len(t, d.Records, 1)
		assert.Equal(t, clock.Now(), d.GeneratedAt)
	})

	t.Run("Should list departments for the filter picker", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "admin", "admin123")
		d, err := app.Dashboard(query.Params{})
		require.NoError(t, err)
		assert.Equal(t, []string{"HR", "IT", "Management", "Marketing", "Sales"}, d.Departments)
	})

	t.Run("Should be closed to the employee view", func(t *testing.T) {
		app, _ := newApp(t)
		login(t, app, "john", "john123")
		_, err := app.Dashboard(query.Params{})
		assert.ErrorIs(t, err, ErrAdminViewRequired)

		app.Logout()
		login(t, app, "admin", "admin123")
		require.NoError(t, app.SwitchView(models.ViewEmployee))
		_, err = app.Dashboard(query.Params{})
		assert.ErrorIs(t, err, ErrAdminViewRequired)
	})

	t.Run("Should require a login", func(t *testing.T) {
		app, _ := newApp(t)
		_, err := app.Dashboard(query.Params{})
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.ErrorIs(t, app.SwitchView(models.ViewAdmin), ErrNotLoggedIn)
	})
}

func TestRecentAndRecord(t *testing.T) {
	ctx := context.Background()
	app, clock := newApp(t)

	login(t, app, "john", "john123")
	var ids []int64
	for i := 0; i < 7; i++ {
		typ := models.CheckIn
		if i%2 == 1 {
			typ = models.CheckOut
		}
		_, err := app.TakePhoto(ctx, camera("file:///p.jpg", nil))
		require.NoError(t, err)
		rec, err := app.Submit(ctx, typ, geolocator(office, nil))
		require.NoError(t, err)
		ids = append(ids, rec.ID)
		clock.Advance(time.Hour)
	}

	t.Run("Should show the user's latest five records newest first", func(t *testing.T) {
		recent, err := app.Recent(RecentLimit)
		require.NoError(t, err)
		require.Len(t, recent, RecentLimit)
		assert.Equal(t, ids[6], recent[0].ID)
		assert.Equal(t, ids[2], recent[4].ID)
	})

	t.Run("Should not show other users' records", func(t *testing.T) {
		app.Logout()
		login(t, app, "jane", "jane123")
		recent, err := app.Recent(RecentLimit)
		require.NoError(t, err)
		assert.Empty(t, recent)
		app.Logout()
	})

	t.Run("Should look up a record for the detail view", func(t *testing.T) {
		login(t, app, "admin", "admin123")
		rec, err := app.Record(ids[3])
		require.NoError(t, err)
		assert.Equal(t, "John Doe", rec.User)
		assert.Equal(t, models.CheckOut, rec.Type)
		assert.Equal(t, "Sales", app.Department(rec.User))

		_, err = app.Record(42)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		app.Logout()
	})
}
