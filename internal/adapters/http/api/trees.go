package api

import (
	"net/http"
	"strings"

	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/pkg/logger"
)

// TreesHandler serves the tree catalogue and per-tree locations.
type TreesHandler struct {
	deps   TreeDependencies
	logger logger.Logger
}

// NewTreesHandler creates a new trees handler.
func NewTreesHandler(deps TreeDependencies, log logger.Logger) *TreesHandler {
	return &TreesHandler{deps: deps, logger: log}
}

// HandleList handles GET /trees?q= requests.
func (h *TreesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_trees"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	trees, err := h.deps.Trees(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	if trees == nil {
		trees = []model.Tree{}
	}
	writeJSON(w, http.StatusOK, trees)
}

// HandleTree handles GET /trees/{id} and GET /trees/{id}/locations.
func (h *TreesHandler) HandleTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/trees/")
	id, rest, _ := strings.Cut(path, "/")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	switch rest {
	case "":
		h.tree(w, r, id)
	case "locations":
		h.locations(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *TreesHandler) tree(w http.ResponseWriter, r *http.Request, id string) {
	tree, err := h.deps.Tree(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, "api.get_tree", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *TreesHandler) locations(w http.ResponseWriter, r *http.Request, id string) {
	recs, err := h.deps.Locations(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, "api.list_locations", err)
		return
	}
	if recs == nil {
		recs = []model.LocationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
