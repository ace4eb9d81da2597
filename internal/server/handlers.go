package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

// Uploaded ISIN lists are small text files.
const maxUploadBytes = 1 << 20

// FieldView describes one editable input and its current display value.
type FieldView struct {
	configuration.FieldInfo
	Value string `json:"value"`
}

type setFieldRequest struct {
	Value string `json:"value"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "etfoptimizer",
		"session": s.session.ID(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.session.Catalog(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	describe := func(fields []configuration.FieldInfo) []FieldView {
		out := make([]FieldView, len(fields))
		for i, f := range fields {
			out[i] = FieldView{FieldInfo: f, Value: s.session.DisplayValue(f.Name)}
		}
		return out
	}
	s.writeJSON(w, http.StatusOK, map[string][]FieldView{
		"parameters": describe(configuration.ParameterFields()),
		"filters":    describe(configuration.FilterFields()),
	})
}

func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	s.setField(w, r, s.session.SetParameter)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	s.setField(w, r, s.session.SetFilter)
}

// setField applies an edit. Unparseable values are not an error: the field
// is removed from the configuration and the new view is returned.
func (s *Server) setField(w http.ResponseWriter, r *http.Request, set func(name, raw string) error) {
	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := set(chi.URLParam(r, "name"), req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleGetIsinList(w http.ResponseWriter, r *http.Request) {
	list := s.session.IsinList()
	if list == nil {
		list = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"isinList": list})
}

func (s *Server) handleUploadIsinList(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read upload"})
		return
	}
	if len(body) > maxUploadBytes {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
		return
	}

	if err := s.session.LoadIsinList(body); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleGetIsinList(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	s.writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	seq, err := s.session.Submit()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]uint64{"seq": seq})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"dismissed": s.session.Dismiss()})
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	view := s.session.View()
	if view.Rows == nil {
		s.writeError(w, apperrors.ErrNoResult)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns":    presenter.Columns,
		"rows":       view.Rows,
		"summary":    view.Summary,
		"aggregates": view.Aggregates,
	})
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.session.ExportDocument()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeArtifact(w, artifact)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.session.PlotArtifact()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeArtifact(w, artifact)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	locations, err := s.session.Export(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"locations": locations})
}

func (s *Server) writeArtifact(w http.ResponseWriter, artifact presenter.Artifact) {
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		s.log.Error().Err(err).Str("file", artifact.Filename).Msg("Failed to write artifact")
	}
}

// writeError maps a session error to a status code and writes {"error": msg}.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var isinErr *configuration.IsinListFormatError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrUnknownField):
		status = http.StatusNotFound
	case errors.As(err, &isinErr):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNoResult), errors.Is(err, apperrors.ErrNoPlot):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, apperrors.ErrExportUnavailable):
		status = http.StatusNotImplemented
	case errors.Is(err, apperrors.ErrSessionClosed):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
