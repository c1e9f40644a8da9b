package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/observability"
	"git.home.luguber.info/inful/grdesk/internal/receipts"
)

const receiptsSurface = "goods-receipts"

// ReceiptsSurface is the goods-receipt screen. Its slice is registered the
// first time any of its routes is hit.
type ReceiptsSurface struct {
	Feature *receipts.Feature
	Form    *receipts.Form
	Actions *receipts.Actions
	Prefs   receipts.PreferenceWriter
	Now     func() time.Time
}

// SubmitRequest is the body of POST /goods-receipts/operations.
type SubmitRequest struct {
	Initial receipts.FormValues `json:"initial"`
	Values  receipts.FormValues `json:"values"`
	Confirm bool                `json:"confirm"`
}

// OperationView is returned by GET /goods-receipts/operations/{id}.
type OperationView struct {
	Operation receipts.Operation `json:"operation"`
	ReadOnly  bool               `json:"readOnly"`
}

func (rs *ReceiptsSurface) now() time.Time {
	if rs.Now != nil {
		return rs.Now()
	}
	return time.Now()
}

func (rs *ReceiptsSurface) routes(s *Server) func(chi.Router) {
	return func(r chi.Router) {
		r.Use(rs.activate(s))
		r.Get("/draft", rs.handleDraft(s))
		r.Post("/operations", rs.handleSubmit(s))
		r.Get("/operations/{id}", rs.handleOperation(s))
		r.Get("/status-rules", rs.handleStatusRules(s))
		r.Post("/status-rules/refresh", rs.handleRefreshStatusRules(s))
		if rs.Prefs != nil {
			r.Get("/preferences/create-new", rs.handleGetCreateNew(s))
			r.Put("/preferences/create-new", rs.handleSetCreateNew(s))
		}
	}
}

func (rs *ReceiptsSurface) activate(s *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := rs.Feature.Activate(); err != nil {
				s.Fail(w, r, err)
				return
			}
			ctx := observability.WithSurface(r.Context(), receiptsSurface)
			ctx = observability.WithModuleKey(ctx, string(receipts.ModuleKey))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (rs *ReceiptsSurface) handleDraft(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.Success(w, http.StatusOK, receipts.Draft(s.cfg.Container.GetState(), rs.now()))
	}
}

func (rs *ReceiptsSurface) handleSubmit(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&req); err != nil {
			s.Fail(w, r, ferrors.ValidationError("invalid form body").WithCause(err).Build())
			return
		}
		res, err := rs.Form.Submit(r.Context(), req.Initial, req.Values, req.Confirm)
		if err != nil {
			s.Fail(w, r, err)
			return
		}
		code := http.StatusCreated
		if res.NeedsConfirmation {
			code = http.StatusOK
		}
		s.Success(w, code, res)
	}
}

func (rs *ReceiptsSurface) handleOperation(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.Fail(w, r, ferrors.ValidationError("invalid operation id").WithContext("id", raw).Build())
			return
		}
		state := s.cfg.Container.GetState()
		op, ok := receipts.OperationByID(state, id)
		if !ok {
			s.Fail(w, r, ferrors.NotFoundError("operation not found").
				WithContext("id", id).
				WithSeverity(ferrors.SeverityInfo).
				Build())
			return
		}
		s.Success(w, http.StatusOK, OperationView{Operation: op, ReadOnly: receipts.IsOperationReadOnly(state, id)})
	}
}

func (rs *ReceiptsSurface) handleStatusRules(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rules := receipts.SelectStatusRules(s.cfg.Container.GetState())
		if rules == nil {
			rules = []receipts.StatusRule{}
		}
		s.Success(w, http.StatusOK, rules)
	}
}

func (rs *ReceiptsSurface) handleRefreshStatusRules(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := rs.Actions.FetchStatusRules.Run(r.Context(), s.cfg.Container, struct{}{})
		if err != nil {
			s.Fail(w, r, err)
			return
		}
		s.Success(w, http.StatusOK, rules)
	}
}

// CreateNewPreference is the body of the create-new preference routes.
type CreateNewPreference struct {
	Type string `json:"type"`
}

func (rs *ReceiptsSurface) handleGetCreateNew(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.Success(w, http.StatusOK, CreateNewPreference{Type: receipts.CreateNewType(rs.Prefs)})
	}
}

func (rs *ReceiptsSurface) handleSetCreateNew(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CreateNewPreference
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&body); err != nil {
			s.Fail(w, r, ferrors.ValidationError("invalid preference body").WithCause(err).Build())
			return
		}
		v, err := receipts.SetCreateNewType(rs.Prefs, body.Type)
		if err != nil {
			s.Fail(w, r, err)
			return
		}
		s.Success(w, http.StatusOK, CreateNewPreference{Type: v})
	}
}
