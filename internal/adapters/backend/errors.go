package backend

import (
	"fmt"

	"github.com/okian/nativetree/internal/domain/model"
)

// Sentinel errors. Each wraps a shared kind from the model package.
var (
	ErrUnavailable = fmt.Errorf("backend unavailable: %w", model.ErrTransientNetwork)
	ErrNotFound    = fmt.Errorf("backend: %w", model.ErrNotFound)
	ErrRejected    = fmt.Errorf("backend rejected request: %w", model.ErrValidationRejection)
)
