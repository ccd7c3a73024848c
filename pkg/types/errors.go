package types

import "fmt"

// ParseError indicates a message failed to parse: bad JSON, an unparseable
// timestamp, or a non-numeric price/quantity string. The triggering message
// is dropped; ingestion continues.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse message: %s", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// UnknownMessageTypeError describes an inbound "type" outside
// {snapshot, l2update, subscriptions}. ParseMessage does not return it:
// such frames come back as Unknown, which the adapter logs at WARN and
// ignores.
type UnknownMessageTypeError struct {
	Type string
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// UnknownSideError is raised when an l2update change names a side other
// than "buy"/"sell". ParseSide returns it wrapped in a *ParseError.
type UnknownSideError struct {
	Side string
}

func (e *UnknownSideError) Error() string {
	return fmt.Sprintf("unknown side %q", e.Side)
}

// ForecastFitError describes a failure from the forecasting oracle's Fit
// call. The retrain worker does not construct it: it logs the raw Fit
// error, leaves the active model unchanged and bumps the refit threshold,
// and nothing surfaces to the ingest path.
type ForecastFitError struct {
	Cause error
}

func (e *ForecastFitError) Error() string {
	return fmt.Sprintf("forecast fit: %s", e.Cause)
}

func (e *ForecastFitError) Unwrap() error {
	return e.Cause
}

// TransportError describes a websocket disconnect or dial failure.
// pkg/websocket does not construct it: it logs read and dial errors and
// reconnects. The engine's in-memory state is unaffected and a fresh
// snapshot on reconnect resets it.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ConfigError indicates a fatal startup misconfiguration, such as a
// non-empty or non-directory cache path.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}
