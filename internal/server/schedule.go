package server

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/eir"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/surface"
	"github.com/goliatone/go-dealform/pkg/validation"
)

type scheduleResponse struct {
	Method     eir.Method      `json:"method"`
	Deal       *deal.Deal      `json:"deal"`
	Report     *eir.Report     `json:"report,omitempty"`
	Comparison *eir.Comparison `json:"comparison,omitempty"`
}

type blockedResponse struct {
	Blocked  bool     `json:"blocked"`
	Messages []string `json:"messages"`
}

func methodOf(action surface.Action) eir.Method {
	switch action {
	case surface.ActionComplexEIR:
		return eir.MethodComplex
	case surface.ActionComparison:
		return eir.MethodComparison
	default:
		return eir.MethodSimple
	}
}

// schedule runs the accepted deal on page through method. A deal whose
// schedule cannot be built goes back to the form with the reason.
func (s *Server) schedule(page *render.Page, method eir.Method) int {
	d := *page.Deal
	var err error
	switch method {
	case eir.MethodComparison:
		var comparison eir.Comparison
		if comparison, err = eir.Compare(d); err == nil {
			page.Comparison = &comparison
		}
	case eir.MethodComplex:
		var report eir.Report
		if report, err = eir.Complex(d); err == nil {
			page.Report = &report
		}
	default:
		var report eir.Report
		if report, err = eir.Simple(d); err == nil {
			page.Report = &report
		}
	}
	if err != nil {
		s.logger.Info("schedule failed",
			zap.String("deal_id", d.DealID),
			zap.String("method", string(method)),
			zap.Error(err),
		)
		page.Deal = nil
		alertOffSchedule(page, err)
		page.Errors.Form = render.MergeFormErrors(page.Errors.Form, err.Error())
		return http.StatusUnprocessableEntity
	}

	s.logger.Info("schedule computed",
		zap.String("deal_id", d.DealID),
		zap.String("method", string(method)),
		zap.Int("dates", len(d.CashFlowDates)),
	)
	return http.StatusOK
}

func alertOffSchedule(page *render.Page, err error) {
	for _, date := range deal.OffSchedule(err) {
		page.Alert(validation.ScheduleDateMessage(date))
	}
}

// handleDownload re-runs the posted form and answers with one table of the
// result as a file. The last path segment names the table; the format field
// picks CSV or XLSX.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	kind, ok := eir.ParseKind(strings.TrimPrefix(r.URL.Path, MountPath(s.opts.BasePath, PathDownload)))
	if !ok {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	format, ok := eir.ParseFormat(r.Form.Get("format"))
	if !ok {
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}

	method := eir.MethodComparison
	if kind == eir.KindReport {
		method = methodOf(surface.ParseAction(r.PostForm.Get(surface.InputAction)))
		if method == eir.MethodComparison {
			method = eir.MethodSimple
		}
	}

	snapshot := surface.DecodeForm(r.PostForm)
	page, ctrl, err := s.load(snapshot)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := s.submit(page, ctrl, snapshot)
	if status == http.StatusOK {
		status = s.schedule(page, method)
	}
	if status != http.StatusOK {
		s.writePage(w, r, s.finish(page, ctrl, snapshot), status)
		return
	}

	var table eir.Table
	switch kind {
	case eir.KindComparison:
		table = page.Comparison.PeriodTable()
	case eir.KindSummary:
		table = page.Comparison.SummaryTable()
	default:
		table = *page.Report
	}

	var body bytes.Buffer
	if err := eir.Write(&body, format, string(kind), table); err != nil {
		s.fail(w, r, err)
		return
	}
	name := eir.Filename(page.Snapshot.DealID, kind, string(format))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

// handleSchedule is the JSON form of the EIR actions. The method query
// parameter defaults to simple.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	method := eir.MethodSimple
	if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
		parsed, ok := eir.ParseMethod(raw)
		if !ok {
			writeJSONError(w, StatusError{Code: http.StatusBadRequest, Err: errors.New("unknown method " + raw)}, http.StatusBadRequest)
			return
		}
		method = parsed
	}
	var snapshot model.FormSnapshot
	if err := decodeJSON(w, r, &snapshot); err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	page, ctrl, err := s.load(snapshot)
	if err != nil {
		writeJSONError(w, err, http.StatusInternalServerError)
		return
	}
	status := s.submit(page, ctrl, snapshot)
	if status == http.StatusOK {
		status = s.schedule(page, method)
	}
	if status != http.StatusOK {
		messages := append(append([]string{}, page.Alerts...), page.Errors.Form...)
		writeJSON(w, status, blockedResponse{Blocked: true, Messages: messages})
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{
		Method:     method,
		Deal:       page.Deal,
		Report:     page.Report,
		Comparison: page.Comparison,
	})
}
