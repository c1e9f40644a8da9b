package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// maxActionBody limits POST /actions payloads.
const maxActionBody = 1 << 20

// DispatchResponse is returned by POST /actions.
type DispatchResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.Success(w, http.StatusOK, s.cfg.Container.GetState())
}

func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	key := store.ModuleKey(chi.URLParam(r, "key"))
	v, ok := s.cfg.Container.GetState()[key]
	if !ok {
		s.Fail(w, r, ferrors.NotFoundError("slice not found").
			WithContext("module_key", string(key)).
			WithSeverity(ferrors.SeverityInfo).
			Build())
		return
	}
	s.Success(w, http.StatusOK, v)
}

func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	s.Success(w, http.StatusOK, s.cfg.Container.Modules())
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var action store.Action
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&action); err != nil {
		s.Fail(w, r, ferrors.ValidationError("invalid action body").WithCause(err).Build())
		return
	}
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if err := s.cfg.Container.Dispatch(r.Context(), action); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusAccepted, DispatchResponse{ID: action.ID, Type: action.Type})
}
