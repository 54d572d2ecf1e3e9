package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for expiration dates.
const DateLayout = "2006-01-02"

// Side distinguishes call and put contracts.
type Side string

const (
	SideCall Side = "CALL"
	SidePut  Side = "PUT"
)

// OptionQuote is a single contract row as supplied by the provider.
type OptionQuote struct {
	Strike       decimal.Decimal `json:"strike"`
	OpenInterest int64           `json:"open_interest"`
	Side         Side            `json:"side"`
}

// ExpirationSet is the ordered sequence of expiration dates available for a
// ticker, earliest first.
type ExpirationSet []time.Time

// Contains reports whether d (compared by calendar day, UTC) is in the set.
func (s ExpirationSet) Contains(d time.Time) bool {
	key := d.UTC().Format(DateLayout)
	for _, e := range s {
		if e.UTC().Format(DateLayout) == key {
			return true
		}
	}
	return false
}

// Nearest returns the earliest expiration in the set.
func (s ExpirationSet) Nearest() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	return s[0], true
}

// Strings formats the set for selectors and JSON responses.
func (s ExpirationSet) Strings() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.UTC().Format(DateLayout)
	}
	return out
}

// OiSnapshot holds everything fetched for one (ticker, expiration) selection.
// It is built fresh per interaction and never mutated after construction.
type OiSnapshot struct {
	Ticker      string          `json:"ticker"`
	Expiration  time.Time       `json:"expiration"`
	Spot        decimal.Decimal `json:"spot"`
	HasSpot     bool            `json:"has_spot"`
	Calls       []OptionQuote   `json:"calls"`
	Puts        []OptionQuote   `json:"puts"`
	Expirations ExpirationSet   `json:"expirations"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

// StrikeRow is the derived per-strike view: call and put open interest merged
// on strike, with NetDelta always equal to CallOI - PutOI.
type StrikeRow struct {
	Strike   decimal.Decimal `json:"strike"`
	CallOI   int64           `json:"call_oi"`
	PutOI    int64           `json:"put_oi"`
	NetDelta int64           `json:"net_delta"`
}
