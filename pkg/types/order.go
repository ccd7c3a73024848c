package types

import (
	"math"
	"time"
)

// Order is an immutable (price, quantity) pair at a single level of a
// PriceBook.
type Order struct {
	Price float64
	Qty   float64
}

// MissingOrder is the sentinel returned by an empty book's Best(). It is not
// an error condition: querying an empty side returns this value.
var MissingOrder = Order{Price: math.NaN(), Qty: math.NaN()}

// IsMissing reports whether o is the empty-book sentinel.
func (o Order) IsMissing() bool {
	return math.IsNaN(o.Price) && math.IsNaN(o.Qty)
}

// BidAskDiff captures a best-bid/best-ask observation and the spread between
// them. Diff is NaN whenever either side was empty at ObservedAt.
type BidAskDiff struct {
	HighestBidPrice float64
	LowestAskPrice  float64
	ObservedAt      time.Time
}

// Diff returns LowestAskPrice - HighestBidPrice.
func (d BidAskDiff) Diff() float64 {
	return d.LowestAskPrice - d.HighestBidPrice
}
