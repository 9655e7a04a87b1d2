package repository

import (
	"errors"
	"fmt"

	"github.com/okian/nativetree/internal/domain/model"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = fmt.Errorf("tree %w", model.ErrNotFound)
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrQuery         = errors.New("store query failed")
)
