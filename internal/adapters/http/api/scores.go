package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/okian/scores/internal/domain/types"
)

// handleAll handles GET /api/scores/all.
func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	scores, err := s.deps.All(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromModels(scores))
}

// handleTop handles GET /api/scores/top.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	scores, err := s.deps.Top(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromModels(scores))
}

// handleFind handles GET /api/scores/{firstName}/{secondName}.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	first, err := pathParam(r, "firstName")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	second, err := pathParam(r, "secondName")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sc, err := s.deps.Find(r.Context(), first, second)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromModel(sc))
}

// pathParam returns a decoded URL parameter. chi matches against RawPath when
// the request carries one (an escaped "/" in a name), otherwise against the
// already decoded Path.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	out, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return out, nil
}

// handleAdd handles POST /api/scores with a JSON score body.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req types.Score
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, decodeError(err))
		return
	}

	sc, err := s.deps.AddScore(r.Context(), req.ToModel())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/scores/"+url.PathEscape(sc.FirstName)+"/"+url.PathEscape(sc.SecondName))
	writeJSON(w, http.StatusCreated, types.FromModel(sc))
}
