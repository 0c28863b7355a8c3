// Package api exposes the REST surface: auth, file registry operations,
// share grants and the public share-token routes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/auth"
	"github.com/anstrom/filecrate/internal/config"
	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/share"
	"github.com/anstrom/filecrate/internal/storage"
)

// UserStore is the account registry surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// InviteStore is the invite-code registry surface.
type InviteStore interface {
	CreateBatch(ctx context.Context, invites []model.InviteCode) error
	GetByCode(ctx context.Context, code string) (*model.InviteCode, error)
	MarkUsed(ctx context.Context, id, userID string) error
	List(ctx context.Context, limit int) ([]model.InviteCode, error)
}

// FileStore is the file registry surface, owner-scoped throughout.
type FileStore interface {
	Create(ctx context.Context, rec *model.FileRecord) error
	List(ctx context.Context, ownerID string, filter model.FileFilter) ([]model.FileRecord, error)
	Get(ctx context.Context, ownerID, id string) (*model.FileRecord, error)
	Update(ctx context.Context, ownerID, id string, upd model.FileUpdate) (*model.FileRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Server hosts the HTTP handlers. It stitches together configuration, the
// registries, blob storage, session tokens and the background queue.
type Server struct {
	cfg      *config.Config
	users    UserStore
	invites  InviteStore
	files    FileStore
	shares   *share.Registry
	store    *storage.Router
	tokens   *auth.Tokens
	queue    *asynq.Client
	localDir string
}

// New constructs a Server. queueClient may be nil, which disables background
// checksum jobs; localDir may be empty when the local provider is not served.
func New(cfg *config.Config, users UserStore, invites InviteStore, files FileStore,
	shares *share.Registry, store *storage.Router, tokens *auth.Tokens,
	queueClient *asynq.Client, localDir string) *Server {
	return &Server{
		cfg:      cfg,
		users:    users,
		invites:  invites,
		files:    files,
		shares:   shares,
		store:    store,
		tokens:   tokens,
		queue:    queueClient,
		localDir: localDir,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.Routes(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	log.Info().Str("address", s.cfg.Address).Msg("api listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Routes assembles the router. Exported so tests can drive the full surface
// through httptest without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.handleHealth)
	if s.localDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.localDir)))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Public share-token routes: the token is the only credential.
		r.Get("/share/{token}", s.handleShareDetails)
		r.Get("/share/{token}/download/{fileID}", s.handleShareDownload)

		r.Group(func(r chi.Router) {
			r.Use(s.requireOwner)
			r.Post("/files/upload", s.handleUpload)
			r.Get("/files", s.handleListFiles)
			r.Get("/files/download/{id}", s.handleDownload)
			r.Patch("/files/{id}", s.handleUpdateFile)
			r.Delete("/files/{id}", s.handleDeleteFile)

			r.Post("/share", s.handleCreateShare)
			r.Get("/share", s.handleListShares)
			r.Delete("/share/{id}", s.handleDeleteShare)

			r.Post("/invites", s.handleCreateInvites)
			r.Get("/invites", s.handleListInvites)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeErr maps an error kind to a status code and a short message. Storage
// and unclassified failures are reported generically; their detail stays in
// the logs.
func writeErr(w http.ResponseWriter, err error) {
	var status int
	message := err.Error()
	switch {
	case errors.Is(err, apierr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apierr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apierr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apierr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apierr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apierr.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, apierr.ErrStorage):
		status = http.StatusInternalServerError
		message = "storage failure"
		log.Error().Err(err).Msg("storage failure")
	default:
		status = http.StatusInternalServerError
		message = "server error"
		log.Error().Err(err).Msg("unhandled error")
	}
	respondJSON(w, status, map[string]string{"message": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("invalid request body")
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
