package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling at action boundaries.
type Category string

const (
	// CategoryDecode marks unreadable or unsupported media. A session that
	// fails to load stays in a not-loaded state; nothing is retried.
	CategoryDecode Category = "decode"
	// CategoryRender marks an unavailable or invalid drawing surface. Fatal
	// to the current render or export attempt only.
	CategoryRender Category = "render"
	// CategoryNetwork marks a failed or timed-out background-removal call.
	// The prior artifact is always retained unchanged.
	CategoryNetwork Category = "network"
	// CategoryCapture marks animated encoding the runtime cannot provide.
	CategoryCapture Category = "capture"
	// CategoryValidation marks invalid arguments or state for an operation.
	CategoryValidation Category = "validation"
)

// CropError is the structured error type used throughout the module.
type CropError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *CropError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *CropError) Unwrap() error { return e.Err }

// New creates a CropError from an underlying error.
func New(category Category, op string, err error) *CropError {
	return &CropError{Category: category, Op: op, Err: err}
}

// Newf creates a CropError from a formatted message.
func Newf(category Category, op string, format string, args ...any) *CropError {
	return &CropError{Category: category, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap wraps an existing error with a category and operation name.
// Returns nil if err is nil.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var ce *CropError
	if errors.As(err, &ce) {
		return ce.Category == cat
	}
	return false
}

// IsDecode reports whether err is a media decode failure.
func IsDecode(err error) bool { return IsCategory(err, CategoryDecode) }

// IsRender reports whether err is a drawing-surface failure.
func IsRender(err error) bool { return IsCategory(err, CategoryRender) }

// IsNetwork reports whether err is a background-removal transport failure.
func IsNetwork(err error) bool { return IsCategory(err, CategoryNetwork) }

// IsCapture reports whether err is an animated-capture capability failure.
func IsCapture(err error) bool { return IsCategory(err, CategoryCapture) }

// Sentinel errors for common failure modes.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrInvalidDimensions = errors.New("invalid media dimensions")
	ErrNoMedia           = errors.New("no media loaded")
	ErrNoArtifact        = errors.New("no export artifact")
	ErrSessionBusy       = errors.New("operation already in progress")
	ErrSessionClosed     = errors.New("session closed")
	ErrNoVideoSource     = errors.New("media has no video source")
)
