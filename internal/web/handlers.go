package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/generator"
	"github.com/a3tai/bizdocs/internal/render"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
}

type settingsResponse struct {
	Success  bool              `json:"success"`
	Settings document.Settings `json:"settings"`
}

type exportedSettings struct {
	document.Settings
	ExportDate string `json:"exportDate"`
}

type exportResponse struct {
	Success  bool             `json:"success"`
	Data     exportedSettings `json:"data"`
	Filename string           `json:"filename"`
}

type totalsResponse struct {
	Success  bool               `json:"success"`
	Document *document.Document `json:"document"`
	Totals   document.Totals    `json:"totals"`
}

func (s *Server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := assets.ReadFile(name)
		if err != nil {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	doc, err := document.DecodeJSON(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.svc.Generate(r.Context(), generator.GenerateRequest{
		Document: doc,
		Format:   format,
		Save:     r.URL.Query().Get("save") == "true",
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	_, _ = res.Result.WriteTo(w)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc, err := document.DecodeJSON(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.svc.Preview(r.Context(), doc)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	_, _ = res.Result.WriteTo(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	doc, err := document.DecodeJSON(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.svc.Totals(doc)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{Success: true, Document: out, Totals: out.Totals})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := s.svc.Settings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to get settings"))
		s.logger.Error("failed to load settings", zap.Error(err))
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Success: true, Settings: settings})
}

func (s *Server) handleExportSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := s.svc.Settings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to export settings"))
		s.logger.Error("failed to load settings", zap.Error(err))
		return
	}

	now := s.now()
	writeJSON(w, http.StatusOK, exportResponse{
		Success: true,
		Data: exportedSettings{
			Settings:   settings,
			ExportDate: now.Format("2006-01-02T15:04:05.000000"),
		},
		Filename: "business_settings_" + now.Format("20060102_150405") + ".json",
	})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrInvalidDocument),
		errors.Is(err, render.ErrUnsupportedFormat),
		errors.Is(err, render.ErrNilDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *document.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
