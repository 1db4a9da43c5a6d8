package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alharis/haris/internal/haris/domain"
)

// maxBodySize bounds request bodies; every payload is a short JSON object.
const maxBodySize = 1 << 20

type errorResponse struct {
	Error     string   `json:"error"`
	Unknown   []string `json:"unknown,omitempty"`
	Mandatory []string `json:"mandatory,omitempty"`
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}

type categoriesResponse struct {
	Enabled []string `json:"enabled_categories"`
}

type overrideRequest struct {
	URL string `json:"url"`
}

type accountRequest struct {
	Name string `json:"name"`
}

type childRequest struct {
	Name       string `json:"name"`
	DeviceName string `json:"device_name"`
}

type idResponse struct {
	ID uint64 `json:"id"`
}

type refreshResponse struct {
	Version uint64 `json:"version"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.svc.Ready() {
		writeError(w, http.StatusServiceUnavailable, "blocklist not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListCategories())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.RefreshStatus())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refr == nil {
		writeError(w, http.StatusNotFound, "refresh disabled")
		return
	}
	v, err := s.refr.Refresh(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Version: v})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := s.svc.CreateAccount(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Settings(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req categoriesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	enabled, err := s.svc.UpdateCategories(r.Context(), id, req.Categories)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Enabled: enabled})
}

func (s *Server) handleBlockURL(w http.ResponseWriter, r *http.Request) {
	s.handleOverride(w, r, domain.VerdictBlock)
}

func (s *Server) handleAllowURL(w http.ResponseWriter, r *http.Request) {
	s.handleOverride(w, r, domain.VerdictAllow)
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request, v domain.Verdict) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req overrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var (
		o   domain.Override
		err error
	)
	if v == domain.VerdictBlock {
		o, err = s.svc.BlockURL(r.Context(), id, req.URL)
	} else {
		o, err = s.svc.AllowURL(r.Context(), id, req.URL)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("domain")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing domain parameter")
		return
	}
	d, err := s.svc.Check(r.Context(), id, name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreateChild(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req childRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	childID, err := s.svc.CreateChild(r.Context(), id, req.Name, req.DeviceName)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: childID})
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	children, err := s.svc.ListChildren(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if children == nil {
		children = []domain.ChildProfile{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (s *Server) handleChildFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	feed, err := s.svc.ChildFeed(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// writeServiceError maps domain errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var invalid *domain.InvalidCategoryRequestError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:     invalid.Error(),
			Unknown:   invalid.Unknown,
			Mandatory: invalid.Mandatory,
		})
	case errors.Is(err, domain.ErrMalformedDomain):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error(map[string]any{"error": err}, "request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
