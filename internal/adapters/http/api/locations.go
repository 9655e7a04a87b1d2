package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/nativetree/internal/domain/geo"
	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
)

const maxLocationBody = 1 << 14

// locationRequest mirrors the OpenAPI schema for POST /locations.
type locationRequest struct {
	TreeID    model.FlexString `json:"tree_id"`
	Latitude  *model.FlexFloat `json:"latitude"`
	Longitude *model.FlexFloat `json:"longitude"`
}

func (l locationRequest) validate() error {
	switch {
	case strings.TrimSpace(string(l.TreeID)) == "":
		return errors.New("missing tree_id")
	case l.Latitude == nil:
		return errors.New("missing latitude")
	case l.Longitude == nil:
		return errors.New("missing longitude")
	}
	return nil
}

func (l locationRequest) coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: float64(*l.Latitude), Longitude: float64(*l.Longitude)}
}

// LocationsHandler handles location writes.
type LocationsHandler struct {
	deps   LocationDependencies
	logger logger.Logger
}

// NewLocationsHandler creates a new locations handler.
func NewLocationsHandler(deps LocationDependencies, log logger.Logger) *LocationsHandler {
	return &LocationsHandler{deps: deps, logger: log}
}

// HandleCreate handles POST /locations requests.
func (h *LocationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_location"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req locationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLocationBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", model.WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", model.WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.CreateLocation(r.Context(), string(req.TreeID), req.coordinate())
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
