package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/scores/internal/app"
	"github.com/okian/scores/internal/domain/types"
)

const defaultImportSource = "upload"

func toImportJob(st service.JobStatus, duplicate bool) types.ImportJob { //nolint:gocritic // hugeParam: value copy from the registry
	return types.ImportJob{
		ID:        st.ID,
		Source:    st.Source,
		Status:    string(st.Status),
		Duplicate: duplicate,
		Imported:  st.Imported,
		Error:     st.Err,
	}
}

// handleSubmit handles POST /api/scores/imports. The sheet is queued for the
// worker pool and the job is returned with 202. Resubmitting identical
// content returns the original job with 200.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	content, err := s.readCSV(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	src := r.URL.Query().Get("source")
	if src == "" {
		src = defaultImportSource
	}

	st, duplicate, err := s.deps.Submit(r.Context(), src, content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusAccepted
	if duplicate {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/api/scores/imports/"+st.ID)
	writeJSON(w, status, toImportJob(st, duplicate))
}

// handleJob handles GET /api/scores/imports/{id}.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toImportJob(st, false))
}
