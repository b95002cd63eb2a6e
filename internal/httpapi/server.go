// Package httpapi exposes the record lifecycle over HTTP.
//
// All mutating traffic funnels into two endpoints: one that creates
// records and one that applies actions to them. Everything else is
// read-only projection of the same action log.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/auth"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/logger"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/service"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/workqueue"
)

// Server holds the HTTP handlers for the record API.
type Server struct {
	svc    *service.Service
	tokens *auth.Manager
	log    *logger.Logger
}

// NewServer creates a Server.
func NewServer(svc *service.Service, tokens *auth.Manager, log *logger.Logger) *Server {
	return &Server{svc: svc, tokens: tokens, log: log.WithComponent("httpapi")}
}

// Router assembles the full middleware and route stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger(s.log))
	r.Use(Recoverer(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(s.tokens))

		r.Post("/events", s.handleCreateEvent)
		r.Route("/events/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEvent)
			r.Get("/history", s.handleGetHistory)
			r.Post("/actions", s.handleSubmitAction)
		})

		r.Get("/workqueues", s.handleListWorkqueues)
		r.Get("/workqueues/{slug}", s.handleGetWorkqueue)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "crvs",
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, auth.ErrInvalidToken)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed JSON body", nil)
		return
	}
	if details := validateRequest(&req); details != nil {
		writeValidationError(w, "invalid request", details)
		return
	}

	decl, err := record.DeclarationFromAny(req.Declaration)
	if err != nil {
		writeValidationError(w, "invalid declaration: "+err.Error(), nil)
		return
	}

	rec, err := s.svc.Submit(r.Context(), "", engine.ActionInput{
		Type:          record.ActionCreate,
		TransactionID: req.TransactionID,
		EventType:     record.EventType(req.EventType),
		EventID:       req.EventID,
		Declaration:   decl,
	}, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(rec))
}

func (s *Server) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, auth.ErrInvalidToken)
		return
	}
	eventID := chi.URLParam(r, "id")

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed JSON body", nil)
		return
	}
	if details := validateRequest(&req); details != nil {
		writeValidationError(w, "invalid request", details)
		return
	}

	actionType := record.ActionType(req.Action)
	if actionType == record.ActionCreate {
		writeValidationError(w, "records are created via POST /api/v1/events", nil)
		return
	}

	decl, err := record.DeclarationFromAny(req.Declaration)
	if err != nil {
		writeValidationError(w, "invalid declaration: "+err.Error(), nil)
		return
	}
	meta, err := record.DeclarationFromAny(req.Metadata)
	if err != nil {
		writeValidationError(w, "invalid metadata: "+err.Error(), nil)
		return
	}

	rec, err := s.svc.Submit(r.Context(), eventID, engine.ActionInput{
		Type:          actionType,
		TransactionID: req.TransactionID,
		BaseVersion:   *req.BaseVersion,
		Declaration:   decl,
		Metadata:      record.Metadata(meta),
	}, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleListWorkqueues(w http.ResponseWriter, r *http.Request) {
	type queueDef struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	defs := make([]queueDef, len(workqueue.Queues))
	for i, q := range workqueue.Queues {
		defs[i] = queueDef{Slug: q.Slug, Title: q.Title}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleGetWorkqueue(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	slug := chi.URLParam(r, "slug")

	if _, ok := workqueue.BySlug(slug); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(Response{
			Success: false,
			Error:   &ErrorBody{Code: "NOT_FOUND", Message: "unknown work queue"},
		})
		return
	}

	rows, err := s.svc.Queue(r.Context(), slug, actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueViewOf(rows))
}
