package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sibylcommerce/sibyl/internal/domain"
	"github.com/sibylcommerce/sibyl/internal/observability"
)

const defaultLimit = 5

// Handler handles HTTP requests.
type Handler struct {
	recommender *domain.RecommenderService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(recommender *domain.RecommenderService) *Handler {
	return &Handler{
		recommender: recommender,
	}
}

// recommendationsResponse is the JSON shape of a recommendation listing.
type recommendationsResponse struct {
	ProductID       int64                   `json:"product_id"`
	Count           int                     `json:"count"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// HandleRecommendations serves GET /v1/products/{id}/recommendations.
//
// Query parameters: limit (default 5), strategy (category|popularity|hybrid),
// force_fallback (boolean).
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	var opts domain.GenerateOptions

	if raw := r.URL.Query().Get("strategy"); raw != "" {
		strategy, parseErr := domain.ParseStrategy(raw)
		if parseErr != nil {
			http.Error(w, parseErr.Error(), http.StatusBadRequest)
			return
		}
		opts.Strategy = strategy
	}

	if raw := r.URL.Query().Get("force_fallback"); raw != "" {
		force, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			http.Error(w, "force_fallback must be a boolean", http.StatusBadRequest)
			return
		}
		opts.ForceFallback = force
	}

	logger := observability.FromContext(ctx)

	recommendations, err := h.recommender.Generate(ctx, productID, limit, opts)
	if err != nil {
		logger.Error("recommendation generation rejected", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("recommendations served",
		zap.Int64("target_product_id", productID),
		zap.Int("count", len(recommendations)),
	)

	writeJSON(ctx, w, recommendationsResponse{
		ProductID:       productID,
		Count:           len(recommendations),
		Recommendations: recommendations,
	})
}

// HandleCacheClear serves POST /v1/recommendations/cache/clear. It drops
// the cached catalog snapshot and trained model; the next request reloads
// and retrains.
func (h *Handler) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.recommender.ClearCache()
	observability.FromContext(ctx).Info("recommendation cache cleared")

	writeJSON(ctx, w, map[string]string{"status": "cache cleared"})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
