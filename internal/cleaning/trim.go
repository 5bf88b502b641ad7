package cleaning

import (
	"time"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
	"github.com/AMS-QF/TAQ-Data/internal/taqtime"
)

// TrimTrades keeps only trades whose time of day falls inside the given
// session, boundaries included. This is the regular-session pass applied
// after cleaning and before reconstruction; it is distinct from the
// market-hours pass in CleanTrades.
func TrimTrades(trades []*domain.CleanedTrade, session taqtime.Session) []*domain.CleanedTrade {
	out := make([]*domain.CleanedTrade, 0, len(trades))
	for _, t := range trades {
		if session.Contains(time.Unix(0, t.Timestamp).UTC()) {
			out = append(out, t)
		}
	}
	return out
}

// TrimQuotes keeps only quotes whose time of day falls inside the given
// session, boundaries included.
func TrimQuotes(quotes []*domain.CleanedQuote, session taqtime.Session) []*domain.CleanedQuote {
	out := make([]*domain.CleanedQuote, 0, len(quotes))
	for _, q := range quotes {
		if session.Contains(time.Unix(0, q.Timestamp).UTC()) {
			out = append(out, q)
		}
	}
	return out
}
