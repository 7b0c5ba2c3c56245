package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"alleycat/internal/config"
	"alleycat/internal/economy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the ledger operation set to the chat-platform collaborator.
// It does no message parsing and no rendering; requests are already-resolved
// operations with typed arguments.
type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	ledger *economy.Service
	mux    *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, ledger *economy.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		ledger: ledger,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Route("/guilds/{guild_id}", func(r chi.Router) {
			r.Post("/daily", s.handleDaily)
			r.Get("/accounts/{user_id}", s.handleBalance)
			r.Post("/accounts/{user_id}/grant", s.handleGrant)
			r.Get("/accounts/{user_id}/items", s.handleInventory)
			r.Get("/leaderboard", s.handleLeaderboard)

			r.Post("/items/craft", s.handleCraft)
			r.Get("/items/{item_id}", s.handleItemDetail)
			r.Post("/items/{item_id}/enhance", s.handleEnhance)

			r.Get("/market/listings", s.handleBrowse)
			r.Post("/market/listings", s.handleList)
			r.Post("/market/listings/{listing_id}/purchase", s.handlePurchase)
			r.Delete("/market/listings/{listing_id}", s.handleCancelListing)

			r.Get("/asset", s.handleAsset)
		})
	})
}

// authMiddleware checks the shared operator token. End-user permissions are
// the collaborator's job; this only keeps strangers off the operation set.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken != "" && bearerToken(r.Header.Get("Authorization")) != s.cfg.APIToken {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.DailyReward(r.Context(), guildID(r), in.UserID, in.DisplayName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	out, err := s.ledger.Balance(r.Context(), guildID(r), chi.URLParam(r, "user_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount      int64  `json:"amount"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.Grant(r.Context(), guildID(r), chi.URLParam(r, "user_id"), in.DisplayName, in.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	out, err := s.ledger.Inventory(r.Context(), guildID(r), chi.URLParam(r, "user_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.LeaderboardTop
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	out, err := s.ledger.Leaderboard(r.Context(), guildID(r), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (s *Server) handleCraft(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.CraftItem(r.Context(), guildID(r), in.UserID, in.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleItemDetail(w http.ResponseWriter, r *http.Request) {
	out, err := s.ledger.ItemDetail(r.Context(), guildID(r), chi.URLParam(r, "item_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.EnhanceItem(r.Context(), guildID(r), in.UserID, chi.URLParam(r, "item_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	out, err := s.ledger.Browse(r.Context(), guildID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": out})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SellerID string `json:"seller_id"`
		ItemID   string `json:"item_id"`
		Price    int64  `json:"price"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.ListItem(r.Context(), guildID(r), in.SellerID, in.ItemID, in.Price)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BuyerID string `json:"buyer_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.Purchase(r.Context(), guildID(r), in.BuyerID, chi.URLParam(r, "listing_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SellerID string `json:"seller_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.ledger.CancelListing(r.Context(), guildID(r), in.SellerID, chi.URLParam(r, "listing_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": out})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	out, err := s.ledger.ReportAsset(r.Context(), guildID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func guildID(r *http.Request) string {
	return chi.URLParam(r, "guild_id")
}

// writeDomainError maps the ledger's sentinel errors onto stable HTTP
// categories so the collaborator can render consistent feedback.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, economy.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, economy.ErrInsufficientFunds),
		errors.Is(err, economy.ErrInventoryFull),
		errors.Is(err, economy.ErrMaxLevelReached):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, economy.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, economy.ErrItemNotFound), errors.Is(err, economy.ErrListingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, economy.ErrStorageTimeout):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
