package locsync

import (
	"errors"
	"fmt"

	"github.com/okian/nativetree/internal/domain/model"
)

// Sentinel errors. None of them is fatal to the view.
var (
	// ErrNoLocations reports a tree with no recorded locations.
	ErrNoLocations = fmt.Errorf("no locations recorded: %w", model.ErrNotFound)
	// ErrLoadFailed wraps a failed location fetch; the cause carries the kind.
	ErrLoadFailed = errors.New("failed to load locations")
	// ErrAlreadyExists rejects a save at a point the view already shows.
	ErrAlreadyExists = fmt.Errorf("this location already exists in the database: %w", model.ErrValidationRejection)
	// ErrSaveFailed wraps a failed location insert; the record is discarded.
	ErrSaveFailed = errors.New("failed to save location")
	// ErrPermissionDenied reports refused location access.
	ErrPermissionDenied = fmt.Errorf("location permission denied: %w", model.ErrPermissionDenied)
	// ErrPositionUnavailable reports that no position fix could be obtained.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrClosed reports a result that arrived after the view was closed and
	// was discarded.
	ErrClosed = errors.New("location view closed")
)
