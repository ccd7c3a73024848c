package orderbook

import "github.com/kryptostream/obengine/pkg/types"

// StatsView is the immutable value returned by GetStats: a consistent
// cross-structure snapshot of the engine's derived state.
type StatsView struct {
	CurrentHighestBid  types.Order
	CurrentLowestAsk   types.Order
	MaxAskBidDiff      types.BidAskDiff
	ForecastedMidPrice float64
	MidPrices          map[int]float64 // window_seconds -> mean mid-price
	ForecastErrors     map[int]float64 // window_seconds -> mean |forecast-observed|
}

// GetStats returns a consistent snapshot across the PriceBooks, the
// maximum spread, the forecaster's latest prediction, and every
// configured aggregation window.
func (ob *OrderBook) GetStats() StatsView {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	midPrices := make(map[int]float64, len(ob.windows))
	forecastErrors := make(map[int]float64, len(ob.windows))
	for _, w := range ob.windows {
		sec := int(w.Seconds())
		midPrices[sec] = ob.midSeries.WindowMean(w)
		forecastErrors[sec] = ob.forecastTable.WindowErrorMean(w)
	}

	return StatsView{
		CurrentHighestBid:  ob.bids.Best(),
		CurrentLowestAsk:   ob.asks.Best(),
		MaxAskBidDiff:      ob.maxAskBidDiff,
		ForecastedMidPrice: ob.forecastTable.LastForecast(),
		MidPrices:          midPrices,
		ForecastErrors:     forecastErrors,
	}
}
