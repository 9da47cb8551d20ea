package submission

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no user is attached to the request
var ErrUnauthenticated = errors.New("unauthenticated: no active session")

// ValidationError reports a payload that breaks a listing invariant.
// It is always returned before any store call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid listing: " + e.Message
	}
	return fmt.Sprintf("invalid listing: %s %s", e.Field, e.Message)
}

// StoreWriteError wraps a failed insert into one of the record tables
type StoreWriteError struct {
	Table string
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to insert into %s: %v", e.Table, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// UploadError wraps a failed image upload
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload image %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// LinkError is returned when an image was uploaded but its listings_images row
// could not be written. The blob under Key is left orphaned.
type LinkError struct {
	Key string
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link uploaded image %s: %v", e.Key, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }
