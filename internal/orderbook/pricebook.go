package orderbook

import (
	"sort"

	"github.com/kryptostream/obengine/pkg/types"
)

// PriceBook is an ordered mapping from price to quantity for one side of
// the book, kept as a slice sorted by the side's ordering (bids
// descending, asks ascending) with binary-search insert/delete. There is
// no ordered-map/btree dependency anywhere in this module's stack, so the
// book follows the same sorted-slice-plus-binary-search idiom used
// elsewhere in the ecosystem for L2 books.
type PriceBook struct {
	bid    bool // true = bids (descending), false = asks (ascending)
	prices []float64
	qtys   []float64
}

// NewPriceBook creates an empty book for the given side.
func NewPriceBook(side types.Side) *PriceBook {
	return &PriceBook{bid: side == types.SideBid}
}

// less reports whether price a sorts before price b for this side.
func (b *PriceBook) less(a, p float64) bool {
	if b.bid {
		return a > p // descending: best (highest) first
	}
	return a < p // ascending: best (lowest) first
}

// search returns the index of price in the book, or the index it should be
// inserted at if absent.
func (b *PriceBook) search(price float64) int {
	return sort.Search(len(b.prices), func(i int) bool {
		return !b.less(b.prices[i], price)
	})
}

// Insert upserts quantity at price if quantity > 0, or deletes the entry at
// price (if present) when quantity <= 0. Deleting an absent price is a
// no-op.
func (b *PriceBook) Insert(price, quantity float64) {
	i := b.search(price)
	found := i < len(b.prices) && b.prices[i] == price

	if quantity <= 0 {
		if found {
			b.prices = append(b.prices[:i], b.prices[i+1:]...)
			b.qtys = append(b.qtys[:i], b.qtys[i+1:]...)
		}
		return
	}

	if found {
		b.qtys[i] = quantity
		return
	}

	b.prices = append(b.prices, 0)
	b.qtys = append(b.qtys, 0)
	copy(b.prices[i+1:], b.prices[i:])
	copy(b.qtys[i+1:], b.qtys[i:])
	b.prices[i] = price
	b.qtys[i] = quantity
}

// Best returns the best entry (rank 0 in the side's ordering), or
// types.MissingOrder if the book is empty.
func (b *PriceBook) Best() types.Order {
	if len(b.prices) == 0 {
		return types.MissingOrder
	}
	return types.Order{Price: b.prices[0], Qty: b.qtys[0]}
}

// Len returns the number of stored price levels.
func (b *PriceBook) Len() int {
	return len(b.prices)
}

// Levels returns a detached copy of every (price, quantity) pair in the
// book's order.
func (b *PriceBook) Levels() []types.Order {
	out := make([]types.Order, len(b.prices))
	for i := range b.prices {
		out[i] = types.Order{Price: b.prices[i], Qty: b.qtys[i]}
	}
	return out
}

// Clone returns a deep copy of the book.
func (b *PriceBook) Clone() *PriceBook {
	clone := &PriceBook{
		bid:    b.bid,
		prices: make([]float64, len(b.prices)),
		qtys:   make([]float64, len(b.qtys)),
	}
	copy(clone.prices, b.prices)
	copy(clone.qtys, b.qtys)
	return clone
}

// Equal reports whether two books hold the same (price, quantity) pairs in
// the same order, used to pin the take_snapshot round-trip invariant.
func (b *PriceBook) Equal(other *PriceBook) bool {
	if b.bid != other.bid || len(b.prices) != len(other.prices) {
		return false
	}
	for i := range b.prices {
		if b.prices[i] != other.prices[i] || b.qtys[i] != other.qtys[i] {
			return false
		}
	}
	return true
}
