// Package router wires the HTTP surface of the notes service: the auth
// endpoints, the ownership-scoped notes CRUD behind the session verifier,
// the health check and the subnet-gated debug listings.
package router

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/dsavelev/notesapi/internal/apperror"
	"github.com/dsavelev/notesapi/internal/auth"
	"github.com/dsavelev/notesapi/internal/authenticator"
	"github.com/dsavelev/notesapi/internal/gzippedhttp"
	"github.com/dsavelev/notesapi/internal/ipchecker"
	"github.com/dsavelev/notesapi/internal/logger"
	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/service"
)

// Router holds the handler dependencies.
type Router struct {
	svc       *service.Service
	ipChecker *ipchecker.IPChecker
}

// New assembles the chi router with logging, gzip and CORS middleware and
// every route of the API.
func New(
	svc *service.Service,
	authMiddleware authenticator.Authenticator,
	ipChecker *ipchecker.IPChecker,
	clientOrigin string,
) *chi.Mux {
	handlers := &Router{
		svc:       svc,
		ipChecker: ipChecker,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(gzippedhttp.GzipResponse)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{clientOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Get(`/`, handlers.GetRoot)
	router.Get(`/health`, handlers.GetHealth)

	router.Post(`/auth/register`, handlers.PostAuthRegister)
	router.Post(`/auth/login`, handlers.PostAuthLogin)

	router.Group(func(protected chi.Router) {
		protected.Use(authMiddleware.Authenticate)
		protected.Get(`/notes`, handlers.GetNotes)
		protected.Post(`/notes`, handlers.PostNotes)
		protected.Put(`/notes/{id}`, handlers.PutNote)
		protected.Delete(`/notes/{id}`, handlers.DeleteNote)
	})

	router.Get(`/users`, handlers.GetUsersListing)
	router.Get(`/all-notes`, handlers.GetAllNotesListing)

	return router
}

// GetRoot answers with a plain liveness banner.
func (h *Router) GetRoot(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = response.Write([]byte("Notes API is running successfully."))
}

// GetHealth reports service and storage health.
func (h *Router) GetHealth(response http.ResponseWriter, request *http.Request) {
	if err := h.svc.Ping(request.Context()); err != nil {
		writeJSON(response, http.StatusInternalServerError, models.HealthResponse{
			Status: "error",
			Error:  err.Error(),
		})
		return
	}

	writeJSON(response, http.StatusOK, models.HealthResponse{Status: "ok"})
}

// PostAuthRegister creates a new account and answers 201 with its public fields.
func (h *Router) PostAuthRegister(response http.ResponseWriter, request *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(response, request, &req) {
		return
	}

	registered, err := h.svc.Register(request.Context(), req)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, registered)
}

// PostAuthLogin verifies credentials and answers with a session token.
func (h *Router) PostAuthLogin(response http.ResponseWriter, request *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(response, request, &req) {
		return
	}

	loginResponse, err := h.svc.Login(request.Context(), req)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, loginResponse)
}

// GetNotes lists the caller's notes, newest first.
func (h *Router) GetNotes(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeError(response, apperror.NewUnauthorizedError("unauthorized"))
		return
	}

	notes, err := h.svc.ListNotes(request.Context(), userID)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, notes)
}

// PostNotes creates a note owned by the caller and answers 201 with the record.
func (h *Router) PostNotes(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeError(response, apperror.NewUnauthorizedError("unauthorized"))
		return
	}

	var req models.NoteRequest
	if !decodeJSON(response, request, &req) {
		return
	}

	note, err := h.svc.CreateNote(request.Context(), userID, req)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, note)
}

// PutNote rewrites one of the caller's notes. A miss (nonexistent note or
// a note owned by somebody else) answers 200 with an empty object.
func (h *Router) PutNote(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeError(response, apperror.NewUnauthorizedError("unauthorized"))
		return
	}

	var req models.NoteRequest
	if !decodeJSON(response, request, &req) {
		return
	}

	// A malformed id can match no row, so it falls under the same
	// silent no-op policy as a foreign or nonexistent note.
	noteID, _ := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)

	note, err := h.svc.UpdateNote(request.Context(), userID, noteID, req)
	if err != nil {
		writeError(response, err)
		return
	}
	if note == nil {
		writeJSON(response, http.StatusOK, struct{}{})
		return
	}

	writeJSON(response, http.StatusOK, note)
}

// DeleteNote removes one of the caller's notes and reports success
// whether or not anything matched.
func (h *Router) DeleteNote(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeError(response, apperror.NewUnauthorizedError("unauthorized"))
		return
	}

	noteID, _ := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)

	if err := h.svc.DeleteNote(request.Context(), userID, noteID); err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.DeleteNoteResponse{Deleted: true})
}

// GetUsersListing is the debug listing of accounts, available only from
// the trusted subnet.
func (h *Router) GetUsersListing(response http.ResponseWriter, request *http.Request) {
	if !h.ipChecker.CheckRequest(request) {
		writeForbidden(response)
		return
	}

	users, err := h.svc.GetUsers(request.Context())
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, users)
}

// GetAllNotesListing is the debug listing of every note with its owner,
// available only from the trusted subnet.
func (h *Router) GetAllNotesListing(response http.ResponseWriter, request *http.Request) {
	if !h.ipChecker.CheckRequest(request) {
		writeForbidden(response)
		return
	}

	notes, err := h.svc.GetAllNotes(request.Context())
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, notes)
}

func decodeJSON(response http.ResponseWriter, request *http.Request, target interface{}) bool {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return false
	}

	return true
}

func writeJSON(response http.ResponseWriter, statusCode int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)

	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error encoding the response body:", err)
	}
}

func writeError(response http.ResponseWriter, err error) {
	writeJSON(
		response,
		apperror.StatusCodeFor(err),
		models.ErrorResponse{Error: apperror.MessageFor(err)},
	)
}

func writeForbidden(response http.ResponseWriter) {
	writeJSON(response, http.StatusForbidden, models.ErrorResponse{Error: "forbidden"})
}
