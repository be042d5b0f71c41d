package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"depictsgo/pkg/browse"
	"depictsgo/pkg/wdqs"
	"depictsgo/pkg/wikidata"
)

// BrowseHandler serves the browse page and item detail endpoints.
type BrowseHandler struct {
	service *browse.Service
}

// NewBrowseHandler creates a BrowseHandler.
func NewBrowseHandler(s *browse.Service) *BrowseHandler {
	return &BrowseHandler{service: s}
}

// parseConstraints zips repeated p= and q= parameters into ordered
// constraints. Counts must match and every id must parse.
func parseConstraints(r *http.Request) ([]wdqs.Constraint, error) {
	pids := r.URL.Query()["p"]
	qids := r.URL.Query()["q"]
	if len(pids) != len(qids) {
		return nil, errors.New("mismatched p/q parameters")
	}

	constraints := make([]wdqs.Constraint, 0, len(pids))
	for i := range pids {
		if _, err := wikidata.ParsePID(pids[i]); err != nil {
			return nil, err
		}
		if _, err := wikidata.ParseQID(qids[i]); err != nil {
			return nil, err
		}
		constraints = append(constraints, wdqs.Constraint{PID: pids[i], QID: qids[i]})
	}
	return constraints, nil
}

// parsePage reads the optional page parameter, numbered from 1.
func parsePage(r *http.Request) (int, error) {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page: %q", v)
	}
	return n, nil
}

// HandleBrowse serves GET /api/browse?p=P170&q=Q1028181&...&page=2
func (h *BrowseHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	constraints, err := parseConstraints(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	pageNum, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	page, err := h.service.Browse(r.Context(), constraints, pageNum)
	if err != nil {
		writeQueryFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleItem serves GET /api/item/{qid}.
func (h *BrowseHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	qid := r.PathValue("qid")

	detail, err := h.service.Item(r.Context(), qid)
	if err != nil {
		switch {
		case errors.Is(err, browse.ErrNotFound):
			writeError(w, http.StatusNotFound, "item not found", "")
		case errors.Is(err, wikidata.ErrBadID):
			writeError(w, http.StatusBadRequest, err.Error(), "")
		default:
			writeQueryFailure(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// writeQueryFailure maps upstream failures: a server-side query timeout gets
// its own status and a hint, anything else is a bad gateway.
func writeQueryFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, wdqs.ErrTimeout) {
		writeError(w, http.StatusGatewayTimeout, "query timed out",
			"narrow the query by pinning more properties")
		return
	}
	slog.Error("Upstream request failed", "error", err)
	writeError(w, http.StatusBadGateway, err.Error(), "")
}
