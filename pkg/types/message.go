package types

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// timeLayout is the fixed inbound timestamp format: YYYY-MM-DDTHH:MM:SS.ffffffZ, UTC.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Message is the tagged union of everything the feed can send: a full book
// snapshot, an incremental update, a subscription confirmation, or anything
// else (logged and ignored).
type Message interface {
	isMessage()
}

// RawLevel is a single (price, quantity) pair as it arrives on the wire:
// a 2-element JSON array of decimal strings, e.g. ["19.5","3.2"].
type RawLevel struct {
	Price string
	Qty   string
}

// UnmarshalJSON decodes a ["price","qty"] pair.
func (l *RawLevel) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode price level: %w", err)
	}
	l.Price = pair[0]
	l.Qty = pair[1]
	return nil
}

// Parse converts the wire strings into a float64 Order. A non-numeric
// price or quantity is reported as a *ParseError.
func (l RawLevel) Parse() (Order, error) {
	price, err := strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return Order{}, &ParseError{Cause: fmt.Errorf("parse price %q: %w", l.Price, err)}
	}
	qty, err := strconv.ParseFloat(l.Qty, 64)
	if err != nil {
		return Order{}, &ParseError{Cause: fmt.Errorf("parse qty %q: %w", l.Qty, err)}
	}
	return Order{Price: price, Qty: qty}, nil
}

// RawChange is a single l2update change: [side, price, qty].
type RawChange struct {
	Side  string
	Price string
	Qty   string
}

// UnmarshalJSON decodes a [side, "price", "qty"] triple.
func (c *RawChange) UnmarshalJSON(data []byte) error {
	var triple [3]string
	if err := json.Unmarshal(data, &triple); err != nil {
		return fmt.Errorf("decode change: %w", err)
	}
	c.Side = triple[0]
	c.Price = triple[1]
	c.Qty = triple[2]
	return nil
}

// Parse converts the wire strings into a Side and float64 Order. A bad
// side or a non-numeric price/quantity is reported as a *ParseError.
func (c RawChange) Parse() (Side, Order, error) {
	side, err := ParseSide(c.Side)
	if err != nil {
		return 0, Order{}, err
	}
	price, err := strconv.ParseFloat(c.Price, 64)
	if err != nil {
		return 0, Order{}, &ParseError{Cause: fmt.Errorf("parse price %q: %w", c.Price, err)}
	}
	qty, err := strconv.ParseFloat(c.Qty, 64)
	if err != nil {
		return 0, Order{}, &ParseError{Cause: fmt.Errorf("parse qty %q: %w", c.Qty, err)}
	}
	return side, Order{Price: price, Qty: qty}, nil
}

// Snapshot is the full-book message an exchange sends on connect.
type Snapshot struct {
	ProductID string
	Time      time.Time
	Bids      []RawLevel
	Asks      []RawLevel
}

func (Snapshot) isMessage() {}

// L2Update is an incremental book-change message.
type L2Update struct {
	ProductID string
	Time      time.Time
	Changes   []RawChange
}

func (L2Update) isMessage() {}

// Subscriptions is the subscription-confirmation message; it carries no
// book data and is logged only.
type Subscriptions struct {
	Raw json.RawMessage
}

func (Subscriptions) isMessage() {}

// Unknown wraps any message whose "type" is not recognized. The adapter
// logs it at WARN and drops it; it is not a ParseError.
type Unknown struct {
	Type string
}

func (Unknown) isMessage() {}

type envelope struct {
	Type string `json:"type"`
}

type snapshotWire struct {
	ProductID string     `json:"product_id"`
	Time      string     `json:"time"`
	Bids      []RawLevel `json:"bids"`
	Asks      []RawLevel `json:"asks"`
}

type l2UpdateWire struct {
	ProductID string      `json:"product_id"`
	Time      string      `json:"time"`
	Changes   []RawChange `json:"changes"`
}

// FrameType extracts just the "type" field of a raw frame, without
// decoding the rest of the payload. Used by the cache sink to name files
// without re-deriving the full parse.
func FrameType(raw []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", &ParseError{Cause: fmt.Errorf("decode envelope: %w", err)}
	}
	return env.Type, nil
}

// ParseMessage decodes a single inbound JSON frame into its tagged-union
// form. Malformed JSON or an unparseable timestamp is reported as a
// *ParseError; an unrecognized "type" is returned as Unknown with a nil
// error (the adapter decides how to log it).
func ParseMessage(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Cause: fmt.Errorf("decode envelope: %w", err)}
	}

	switch env.Type {
	case "snapshot":
		var wire snapshotWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, &ParseError{Cause: fmt.Errorf("decode snapshot: %w", err)}
		}
		ts, err := time.Parse(timeLayout, wire.Time)
		if err != nil {
			return nil, &ParseError{Cause: fmt.Errorf("parse snapshot time %q: %w", wire.Time, err)}
		}
		return Snapshot{
			ProductID: wire.ProductID,
			Time:      ts.UTC(),
			Bids:      wire.Bids,
			Asks:      wire.Asks,
		}, nil

	case "l2update":
		var wire l2UpdateWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, &ParseError{Cause: fmt.Errorf("decode l2update: %w", err)}
		}
		ts, err := time.Parse(timeLayout, wire.Time)
		if err != nil {
			return nil, &ParseError{Cause: fmt.Errorf("parse l2update time %q: %w", wire.Time, err)}
		}
		return L2Update{
			ProductID: wire.ProductID,
			Time:      ts.UTC(),
			Changes:   wire.Changes,
		}, nil

	case "subscriptions":
		return Subscriptions{Raw: json.RawMessage(raw)}, nil

	default:
		return Unknown{Type: env.Type}, nil
	}
}

// Side identifies which PriceBook a change applies to.
type Side int

const (
	// SideBid is the buy side: best = highest price.
	SideBid Side = iota
	// SideAsk is the sell side: best = lowest price.
	SideAsk
)

// ParseSide maps the wire's "buy"/"sell" side tag to a Side, returning a
// *ParseError wrapping *UnknownSideError for anything else.
func ParseSide(wire string) (Side, error) {
	switch wire {
	case "buy":
		return SideBid, nil
	case "sell":
		return SideAsk, nil
	default:
		return 0, &ParseError{Cause: &UnknownSideError{Side: wire}}
	}
}
