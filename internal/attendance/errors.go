package attendance

import "errors"

var (
	ErrPermissionDenied     = errors.New("camera and location access are required")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrAlreadyLoggedIn      = errors.New("another user is logged in on this device")
	ErrEmployeeViewRequired = errors.New("switch to the attendance view first")
	ErrAdminViewRequired    = errors.New("the dashboard is only available in the admin view")
	ErrRecordNotFound       = errors.New("attendance record not found")
)

// CaptureError wraps a camera failure; the reason is shown to the user.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return "photo capture failed: " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// LocationError wraps a geolocation failure; the reason is shown to the user.
type LocationError struct {
	Err error
}

func (e *LocationError) Error() string {
	return "failed to get location: " + e.Err.Error()
}

func (e *LocationError) Unwrap() error {
	return e.Err
}
