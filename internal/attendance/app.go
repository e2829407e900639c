// Package attendance is the device: one user directory, one record store and at
// most one logged-in session, driven by discrete user actions.
//
// App is not safe for concurrent use. Callers deliver actions one at a time and
// wait for each to return before starting the next.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendbot/internal/directory"
	"attendbot/internal/logger"
	"attendbot/internal/models"
	"attendbot/internal/query"
	"attendbot/internal/session"
	"attendbot/internal/store"

	"github.com/go-playground/validator/v10"
)

// RecentLimit is how many of their own records an employee sees.
const RecentLimit = 5

type Camera interface {
	Capture(ctx context.Context) (models.PhotoHandle, error)
}

type Geolocator interface {
	CurrentLocation(ctx context.Context) (models.LocationReading, error)
}

type Permissions interface {
	Granted(ctx context.Context) (bool, error)
}

type Options struct {
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger logger.Logger
}

type App struct {
	dir      *directory.Directory
	store    *store.Store
	now      func() time.Time
	log      logger.Logger
	validate *validator.Validate

	granted bool
	session *session.Session
}

// Dashboard is what the admin view renders.
type Dashboard struct {
	Params      query.Params
	Records     []models.AttendanceRecord
	Stats       query.Statistics
	Departments []string
	GeneratedAt time.Time
}

func New(dir *directory.Directory, opts Options) *App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &App{
		dir:      dir,
		store:    store.New(now),
		now:      now,
		log:      log,
		validate: validator.New(),
	}
}

// Now is the device clock.
func (a *App) Now() time.Time {
	return a.now()
}

// RequestPermissions refreshes the camera and location grant. Until it is
// granted every screen except logout is closed.
func (a *App) RequestPermissions(ctx context.Context, p Permissions) error {
	granted, err := p.Granted(ctx)
	if err != nil {
		a.granted = false
		return fmt.Errorf("error checking permissions: %w", err)
	}
	a.granted = granted
	if !granted {
		return ErrPermissionDenied
	}
	return nil
}

// Session returns the active session, or nil.
func (a *App) Session() *session.Session {
	if !a.session.Authenticated() {
		return nil
	}
	return a.session
}

func (a *App) Login(username, password string) (*session.Session, error) {
	if !a.granted {
		return nil, ErrPermissionDenied
	}
	if a.Session() != nil {
		return nil, ErrAlreadyLoggedIn
	}

	s, err := session.Login(a.dir, username, password)
	if err != nil {
		a.log.Warn("Login failed", "username", username)
		return nil, err
	}
	a.session = s
	a.log.Info("Login successful", "session", s.ID, "user", s.Name(), "role", s.Role())
	return s, nil
}

// Logout ends the session and drops any unsubmitted capture. The caller
// confirms intent before calling it.
func (a *App) Logout() {
	if a.session == nil {
		return
	}
	if a.session.Authenticated() {
		a.log.Info("Logged out", "session", a.session.ID, "user", a.session.Name())
	}
	a.session.Logout()
	a.session = nil
}

// SwitchView is only offered to admins; see session.Session.SwitchView.
func (a *App) SwitchView(view models.View) error {
	s := a.Session()
	if s == nil {
		return ErrNotLoggedIn
	}
	s.SwitchView(view)
	return nil
}

func (a *App) captureSession() (*session.Session, error) {
	if !a.granted {
		return nil, ErrPermissionDenied
	}
	s := a.Session()
	if s == nil {
		return nil, ErrNotLoggedIn
	}
	if s.View() != models.ViewEmployee {
		return nil, ErrEmployeeViewRequired
	}
	return s, nil
}

// TakePhoto asks the camera for a picture. A failed or cancelled capture
// leaves the pending photo as it was.
func (a *App) TakePhoto(ctx context.Context, cam Camera) (models.PhotoHandle, error) {
	s, err := a.captureSession()
	if err != nil {
		return "", err
	}

	photo, err := cam.Capture(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("photo capture cancelled: %w", ctxErr)
	}
	if err != nil {
		a.log.Warn("Photo capture failed", "session", s.ID, "error", err)
		return "", &CaptureError{Err: err}
	}
	if photo == "" {
		return "", &CaptureError{Err: errors.New("camera returned no image")}
	}

	s.Capture().SetPhoto(photo)
	a.log.Debug("Photo captured", "session", s.ID)
	return photo, nil
}

// Locate asks the geolocator for a fix and stores it on the pending capture.
func (a *App) Locate(ctx context.Context, geo Geolocator) (models.LocationReading, error) {
	s, err := a.captureSession()
	if err != nil {
		return models.LocationReading{}, err
	}
	return a.locate(ctx, s, geo)
}

func (a *App) locate(ctx context.Context, s *session.Session, geo Geolocator) (models.LocationReading, error) {
	if geo == nil {
		return models.LocationReading{}, &LocationError{Err: errors.New("no location source")}
	}

	loc, err := geo.CurrentLocation(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.LocationReading{}, fmt.Errorf("location request cancelled: %w", ctxErr)
	}
	if err != nil {
		a.log.Warn("Location failed", "session", s.ID, "error", err)
		return models.LocationReading{}, &LocationError{Err: err}
	}
	if err := a.validate.Struct(loc); err != nil {
		return models.LocationReading{}, &LocationError{Err: fmt.Errorf("invalid reading: %w", err)}
	}

	s.Capture().SetLocation(loc)
	a.log.Debug("Location captured", "session", s.ID, "address", loc.Address(), "accuracy", loc.Accuracy)
	return loc, nil
}

// Retake throws away the pending photo and location.
func (a *App) Retake() error {
	s, err := a.captureSession()
	if err != nil {
		return err
	}
	s.Capture().Clear()
	return nil
}

// Submit records a check-in or check-out from the pending capture. When no
// location was captured yet it is fetched from geo first; if that fails
// nothing is recorded.
func (a *App) Submit(ctx context.Context, typ models.RecordType, geo Geolocator) (models.AttendanceRecord, error) {
	s, err := a.captureSession()
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	if !typ.Valid() {
		return models.AttendanceRecord{}, fmt.Errorf("%w: %q", store.ErrInvalidRecordType, typ)
	}

	c := s.Capture()
	if _, ok := c.Photo(); !ok {
		return models.AttendanceRecord{}, store.ErrIncompleteCapture
	}
	if _, ok := c.Location(); !ok && geo != nil {
		if _, err := a.locate(ctx, s, geo); err != nil {
			return models.AttendanceRecord{}, err
		}
	}

	record, err := a.store.Append(typ, c, s.Name())
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	c.Clear()

	a.log.Info("Attendance recorded",
		"session", s.ID,
		"user", record.User,
		"type", record.Type,
		"id", record.ID,
		"address", record.Address,
	)
	return record, nil
}

// Recent lists the logged-in user's latest records.
func (a *App) Recent(n int) ([]models.AttendanceRecord, error) {
	if !a.granted {
		return nil, ErrPermissionDenied
	}
	s := a.Session()
	if s == nil {
		return nil, ErrNotLoggedIn
	}
	return query.Recent(a.store.All(), s.Name(), n), nil
}

func (a *App) adminSession() (*session.Session, error) {
	if !a.granted {
		return nil, ErrPermissionDenied
	}
	s := a.Session()
	if s == nil {
		return nil, ErrNotLoggedIn
	}
	if s.View() != models.ViewAdmin {
		return nil, ErrAdminViewRequired
	}
	return s, nil
}

// Dashboard filters the store and summarizes the result.
func (a *App) Dashboard(p query.Params) (Dashboard, error) {
	if _, err := a.adminSession(); err != nil {
		return Dashboard{}, err
	}

	now := a.now()
	records := query.Filter(a.store.All(), a.dir, p, now)
	return Dashboard{
		Params:      p,
		Records:     records,
		Stats:       query.Stats(records),
		Departments: a.dir.Departments(),
		GeneratedAt: now,
	}, nil
}

// Record looks up one record for the detail view.
func (a *App) Record(id int64) (models.AttendanceRecord, error) {
	if _, err := a.adminSession(); err != nil {
		return models.AttendanceRecord{}, err
	}
	r, ok := query.Find(a.store.All(), id)
	if !ok {
		return models.AttendanceRecord{}, ErrRecordNotFound
	}
	return r, nil
}

// Department returns the department of the user behind a record's display name.
func (a *App) Department(name string) string {
	if u, ok := a.dir.ByName(name); ok {
		return u.Department
	}
	return ""
}

func (a *App) Departments() []string {
	return a.dir.Departments()
}
