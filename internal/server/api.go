package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-dealform/pkg/controller"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/surface"
)

type totalRequest struct {
	Rows []model.SetupCostRow `json:"rows"`
}

type rowValidity struct {
	Valid bool `json:"valid"`
}

type totalResponse struct {
	Total string        `json:"total"`
	Rows  []rowValidity `json:"rows"`
}

type validateResponse struct {
	Blocked  bool                `json:"blocked"`
	Messages []string            `json:"messages"`
	Fields   map[string][]string `json:"fields,omitempty"`
	Markers  map[string]bool     `json:"markers,omitempty"`
	Total    string              `json:"total"`
	Deal     *deal.Deal          `json:"deal,omitempty"`
}

// handleTotal recalculates the setup-cost total for the runtime script.
func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	var req totalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	result := s.calculator.ComputeTotal(req.Rows)
	resp := totalResponse{Total: result.Display(), Rows: make([]rowValidity, len(result.Valid))}
	for i, valid := range result.Valid {
		resp.Rows[i] = rowValidity{Valid: valid}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleValidate runs a snapshot through load and submit the way the form
// does and reports the outcome. Blocked submissions still answer 200.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	var snapshot model.FormSnapshot
	if err := decodeJSON(w, r, &snapshot); err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	page := render.NewPage(snapshot)
	ctrl := controller.New(page, controller.WithLogger(s.logger))
	if _, err := ctrl.Load(snapshot); err != nil {
		writeJSONError(w, err, http.StatusInternalServerError)
		return
	}
	outcome := ctrl.Submit(snapshot)

	resp := validateResponse{
		Blocked:  outcome.Blocked,
		Messages: outcome.Result.Messages(),
		Total:    page.Total,
	}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}
	mapping := render.MapValidation(outcome.Result)
	if len(mapping.Fields) > 0 {
		resp.Fields = make(map[string][]string, len(mapping.Fields))
		for field, messages := range mapping.Fields {
			resp.Fields[string(field)] = messages
		}
	}
	if len(page.Markers) > 0 {
		resp.Markers = make(map[string]bool, len(page.Markers))
		for field, valid := range page.Markers {
			resp.Markers[string(field)] = valid
		}
	}
	if !outcome.Blocked {
		normalized, err := deal.Normalize(ctrl.Snapshot(snapshot), ctrl.Total())
		if err != nil {
			writeJSONError(w, StatusError{Code: http.StatusUnprocessableEntity, Err: err}, http.StatusUnprocessableEntity)
			return
		}
		resp.Deal = &normalized
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(surface.Document())
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", http.MethodPost)
	writeJSONError(w, StatusError{Code: http.StatusMethodNotAllowed}, http.StatusMethodNotAllowed)
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return StatusError{Code: http.StatusRequestEntityTooLarge, Err: err}
		}
		return StatusError{Code: http.StatusBadRequest, Err: err}
	}
	return nil
}
