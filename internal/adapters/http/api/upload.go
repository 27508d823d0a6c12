package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/scores/internal/domain/types"
)

const (
	formFileField = "file"
	bom           = "\uFEFF"
)

// handleUpload handles POST /api/scores/upload. The sheet is parsed and stored
// synchronously; any parse failure rejects the whole sheet.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	content, err := s.readCSV(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	scores, err := s.deps.Upload(r.Context(), content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromModels(scores))
}

// handlePreview handles POST /api/scores/preview. Nothing is stored; every
// row failure is reported.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	content, err := s.readCSV(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromReport(s.deps.Preview(r.Context(), content)))
}

// readCSV extracts the sheet from the request body. Accepted forms are raw
// text, a JSON string, or a multipart upload in the "file" field.
func (s *Server) readCSV(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	mediaType := "text/plain"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		mediaType = mt
	}

	var content string
	switch {
	case mediaType == "multipart/form-data":
		f, _, err := r.FormFile(formFileField)
		if errors.Is(err, http.ErrMissingFile) {
			return "", fmt.Errorf("%w: missing %q field", ErrEmptyBody, formFileField)
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		defer func() { _ = f.Close() }()
		b, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		content = string(b)
	case mediaType == "application/json":
		if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
			return "", decodeError(err)
		}
	case strings.HasPrefix(mediaType, "text/"), mediaType == "application/octet-stream":
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		content = string(b)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCSV, mediaType)
	}

	return strings.TrimPrefix(content, bom), nil
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}
