package classifier

import (
	"fmt"

	"github.com/okian/nativetree/internal/domain/model"
)

// ErrClassifierUnavailable covers any failed classification call: transport
// errors, non-2xx statuses and undecodable bodies. It is a transient network
// error.
var ErrClassifierUnavailable = fmt.Errorf("classifier unavailable: %w", model.ErrTransientNetwork)
