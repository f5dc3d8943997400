package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/moviegate/postbot/internal/models"
	"github.com/moviegate/postbot/internal/service"
)

// PostReader serves the public preview surface. It performs no writes.
type PostReader interface {
	Retrieve(ctx context.Context, id string) (*models.Post, error)
}

// OfferManager is the offer catalog CRUD the admin API exposes.
type OfferManager interface {
	List(ctx context.Context) ([]models.Offer, error)
	Create(ctx context.Context, input service.CreateOfferInput) (*models.Offer, error)
	Update(ctx context.Context, id int64, input service.UpdateOfferInput) (*models.Offer, error)
	Delete(ctx context.Context, id int64) error
}

// LedgerAdmin covers the entitlement operations reachable over HTTP.
type LedgerAdmin interface {
	Grant(ctx context.Context, userID int64, days int) (time.Time, error)
	Revoke(ctx context.Context, userID int64) error
	GenerateCodes(ctx context.Context, count, days int) ([]string, error)
}

type Server struct {
	addr     string
	username string
	password string
	log      *slog.Logger
	posts    PostReader
	offers   OfferManager
	ledger   LedgerAdmin
	router   *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, posts PostReader, offers OfferManager, ledger LedgerAdmin) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		username: username,
		password: password,
		log:      log,
		posts:    posts,
		offers:   offers,
		ledger:   ledger,
		router:   r,
	}

	r.Get("/", s.handleRoot)
	r.Get("/preview/{id}", s.handlePreview)
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Route("/offers", func(r chi.Router) {
			r.Get("/", s.handleListOffers)
			r.Post("/", s.handleCreateOffer)
			r.Put("/{id}", s.handleUpdateOffer)
			r.Delete("/{id}", s.handleDeleteOffer)
		})
		protected.Post("/codes", s.handleGenerateCodes)
		protected.Post("/premium/grant", s.handleGrant)
		protected.Post("/premium/revoke", s.handleRevoke)
	})
	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("web shutdown error", "err", err)
		}
	}()

	s.log.Info("web server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web listen: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleRoot is the keep-alive target.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Bot is online."))
}

// handlePreview serves a published post verbatim. Published documents are
// immutable, so unknown and malformed ids are the only failure mode.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := s.posts.Retrieve(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(post.HTML))
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.offers.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, offers)
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	offer, err := s.offers.Create(r.Context(), service.CreateOfferInput{
		Title:        req.Title,
		Price:        req.Price,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, offer)
}

func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req offerUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	offer, err := s.offers.Update(r.Context(), id, service.UpdateOfferInput{
		Title:        req.Title,
		Price:        req.Price,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, offer)
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.offers.Delete(r.Context(), id); err != nil {
		s.badRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateCodes(w http.ResponseWriter, r *http.Request) {
	var req codesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tokens, err := s.ledger.GenerateCodes(r.Context(), req.Count, req.Days)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"codes": tokens,
		"days":  req.Days,
	})
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	until, err := s.ledger.Grant(r.Context(), req.UserID, req.Days)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user_id":       req.UserID,
		"premium_until": until,
	})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	if err := s.ledger.Revoke(r.Context(), req.UserID); err != nil {
		s.badRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="postbot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("web handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

type offerRequest struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	DurationDays int    `json:"duration_days"`
}

type offerUpdateRequest struct {
	Title        *string `json:"title"`
	Price        *string `json:"price"`
	DurationDays *int    `json:"duration_days"`
}

type codesRequest struct {
	Count int `json:"count"`
	Days  int `json:"days"`
}

type grantRequest struct {
	UserID int64 `json:"user_id"`
	Days   int   `json:"days"`
}

type revokeRequest struct {
	UserID int64 `json:"user_id"`
}
