package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kryptostream/obengine/internal/orderbook"
	"go.uber.org/zap"
)

// StatsProvider is the subset of OrderBook the handler needs.
type StatsProvider interface {
	GetStats() orderbook.StatsView
}

// StatsHandler serves the engine's current derived state.
type StatsHandler struct {
	engine StatsProvider
	logger *zap.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(engine StatsProvider, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{engine: engine, logger: logger}
}

// statsResponse mirrors orderbook.StatsView with window keys rendered as
// strings, since JSON object keys cannot be integers.
type statsResponse struct {
	CurrentHighestBid  orderbookOrder     `json:"current_highest_bid"`
	CurrentLowestAsk   orderbookOrder     `json:"current_lowest_ask"`
	MaxAskBidDiff      float64            `json:"max_ask_bid_diff"`
	ForecastedMidPrice float64            `json:"forecasted_mid_price"`
	MidPrices          map[string]float64 `json:"mid_prices"`
	ForecastErrors     map[string]float64 `json:"forecast_errors"`
}

type orderbookOrder struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.engine.GetStats()

	resp := statsResponse{
		CurrentHighestBid:  orderbookOrder{Price: stats.CurrentHighestBid.Price, Qty: stats.CurrentHighestBid.Qty},
		CurrentLowestAsk:   orderbookOrder{Price: stats.CurrentLowestAsk.Price, Qty: stats.CurrentLowestAsk.Qty},
		MaxAskBidDiff:      stats.MaxAskBidDiff.Diff(),
		ForecastedMidPrice: stats.ForecastedMidPrice,
		MidPrices:          windowKeysToStrings(stats.MidPrices),
		ForecastErrors:     windowKeysToStrings(stats.ForecastErrors),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed-to-encode-stats-response", zap.Error(err))
	}
}

func windowKeysToStrings(m map[int]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for sec, v := range m {
		out[strconv.Itoa(sec)] = v
	}
	return out
}

func (h *StatsHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
