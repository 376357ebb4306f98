package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dealform/pkg/controller"
	"github.com/goliatone/go-dealform/pkg/deal"
	"github.com/goliatone/go-dealform/pkg/model"
	"github.com/goliatone/go-dealform/pkg/render"
	"github.com/goliatone/go-dealform/pkg/rows"
	"github.com/goliatone/go-dealform/pkg/surface"
)

// handleCalculation serves the form. Every request replays the posted form
// through a fresh controller; the page holds no server-side session.
func (s *Server) handleCalculation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		snapshot := s.opts.NewSnapshot()
		page, ctrl, err := s.load(snapshot)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writePage(w, r, s.finish(page, ctrl, snapshot), http.StatusOK)
	case http.MethodPost:
		s.postCalculation(w, r)
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodPost}, ", "))
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *Server) postCalculation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	snapshot := surface.DecodeForm(r.PostForm)
	action := surface.ParseAction(r.PostForm.Get(surface.InputAction))

	page, ctrl, err := s.load(snapshot)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	switch action {
	case surface.ActionAddSetupCost:
		ctrl.AddSetupCostRow()
	case surface.ActionAddInterestRate:
		ctrl.AddInterestRateRow()
	case surface.ActionRecalculate:
		ctrl.Recalculate()
	case surface.ActionSimpleEIR, surface.ActionComplexEIR, surface.ActionComparison:
		if status = s.submit(page, ctrl, snapshot); status == http.StatusOK {
			status = s.schedule(page, methodOf(action))
		}
	default:
		status = s.submit(page, ctrl, snapshot)
	}
	s.writePage(w, r, s.finish(page, ctrl, snapshot), status)
}

// load replays snapshot through a new controller drawing on a new page. The
// load-time findings are shown next to their fields.
func (s *Server) load(snapshot model.FormSnapshot) (*render.Page, *controller.Controller, error) {
	page := render.NewPage(snapshot)
	ctrl := controller.New(page, controller.WithLogger(s.logger))
	findings, err := ctrl.Load(snapshot)
	if err != nil {
		return nil, nil, err
	}
	page.Errors = render.MapValidation(findings)
	return page, ctrl, nil
}

// submit validates the form and, when it passes, normalises the deal.
func (s *Server) submit(page *render.Page, ctrl *controller.Controller, snapshot model.FormSnapshot) int {
	outcome := ctrl.Submit(snapshot)
	page.Errors = render.MapValidation(outcome.Result)
	if outcome.Blocked {
		return http.StatusUnprocessableEntity
	}

	normalized, err := deal.Normalize(ctrl.Snapshot(snapshot), ctrl.Total())
	if err != nil {
		s.logger.Info("deal normalisation failed",
			zap.String("deal_id", snapshot.DealID),
			zap.Error(err),
		)
		alertOffSchedule(page, err)
		page.Errors.Form = render.MergeFormErrors(page.Errors.Form, strings.Split(err.Error(), "\n")...)
		return http.StatusUnprocessableEntity
	}

	s.logger.Info("deal accepted",
		zap.String("deal_id", normalized.DealID),
		zap.String("deal_ccy", normalized.DealCurrency),
		zap.Int("schedule", len(normalized.Schedule)),
	)
	page.Deal = &normalized
	return http.StatusOK
}

func (s *Server) finish(page *render.Page, ctrl *controller.Controller, snapshot model.FormSnapshot) *render.Page {
	page.Snapshot = ctrl.Snapshot(snapshot)
	page.SetupCostIDs = ctrl.Store().IDs(rows.SetupCosts)
	page.InterestRateIDs = ctrl.Store().IDs(rows.InterestRates)
	return page
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, page *render.Page, status int) {
	renderer, err := s.renderers.Negotiate(r.Header.Get("Accept"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
		return
	}
	body, err := renderer.Render(r.Context(), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("render deal form",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	code := statusOf(err, http.StatusInternalServerError)
	http.Error(w, http.StatusText(code), code)
}
