package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	service "github.com/fabioluiz1/thanx-take-home/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type RewardsHandler struct {
	router   *mux.Router
	service  *service.RewardsService
	identity IdentityResolver
	logger   *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type createRedemptionRequest struct {
	RewardID string `json:"reward_id"`
}

func NewHandler(serv *service.RewardsService, identity IdentityResolver, logger *zap.Logger) *RewardsHandler {
	router := mux.NewRouter()
	handler := &RewardsHandler{router, serv, identity, logger}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(MiddlewareMetrics())
	api.HandleFunc("/rewards", handler.ListRewardsHandler).Methods(http.MethodGet)
	api.HandleFunc("/redemptions", handler.CreateRedemptionHandler).Methods(http.MethodPost)
	api.HandleFunc("/redemptions", handler.ListRedemptionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/users/me", handler.CurrentUserHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return handler
}

func (h *RewardsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *RewardsHandler) Log(msg string, handler string, err error) {
	h.logger.Error(msg,
		zap.String("handler", handler),
		zap.Error(err),
	)
}

func (h *RewardsHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	j, err := json.Marshal(body)
	if err != nil {
		h.Log("Marshal", "writeJSON", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(j)
}

func (h *RewardsHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{msg})
}

// Available rewards ordered by ascending cost. Unavailable rewards are
// excluded.
func (h *RewardsHandler) ListRewardsHandler(w http.ResponseWriter, r *http.Request) {
	limit := clamp(intQuery(r, "limit", defaultLimit), 1, maxLimit)
	offset := intQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	rewards, err := h.service.ListAvailableRewards(r.Context(), limit, offset)
	if err != nil {
		h.Log("List rewards", "ListRewardsHandler", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	h.writeJSON(w, http.StatusOK, rewards)
}

// Redeem a reward for the current user.
func (h *RewardsHandler) CreateRedemptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "User not found")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reward_id is required")
		return
	}
	defer r.Body.Close()

	req := &createRedemptionRequest{}
	if err = json.Unmarshal(body, req); err != nil || req.RewardID == "" {
		h.writeError(w, http.StatusBadRequest, "reward_id is required")
		return
	}
	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reward_id is required")
		return
	}

	redemption, err := h.service.Redeem(r.Context(), userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRewardNotFound):
			h.writeError(w, http.StatusNotFound, "Reward not found")
		case errors.Is(err, model.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, model.ErrRewardUnavailable):
			h.writeError(w, http.StatusUnprocessableEntity, "Reward unavailable")
		case errors.Is(err, model.ErrInsufficientPoints):
			h.writeError(w, http.StatusUnprocessableEntity, "Insufficient points")
		case errors.Is(err, model.ErrBusy):
			h.writeError(w, http.StatusServiceUnavailable, "Try again")
		default:
			h.Log("Redeem", "CreateRedemptionHandler", err)
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, redemption)
}

// Redemption history for the current user, newest first, each entry with
// its reward.
func (h *RewardsHandler) ListRedemptionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "User not found")
		return
	}

	redemptions, err := h.service.ListRedemptions(r.Context(), userID)
	if err != nil {
		h.Log("List redemptions", "ListRedemptionsHandler", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if redemptions == nil {
		redemptions = []model.Redemption{}
	}
	h.writeJSON(w, http.StatusOK, redemptions)
}

// Current user profile with points balance.
func (h *RewardsHandler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identity.Resolve(r)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log("Get user", "CurrentUserHandler", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
