package cleaning

import (
	"fmt"

	"github.com/AMS-QF/TAQ-Data/internal/domain"
)

// SchemaError reports a required column missing from an input table.
// It is fatal for that table: no partial cleaning is attempted.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table: required column %q missing", e.Table, e.Column)
}

// Required columns per input table.
var (
	tradeColumns = []string{
		domain.ColTimestamp,
		domain.ColSymbol,
		domain.ColTradePrice,
		domain.ColTradeVolume,
		domain.ColReportingFacility,
	}
	quoteColumns = []string{
		domain.ColTimestamp,
		domain.ColSymbol,
		domain.ColBidPrice,
		domain.ColBidSize,
		domain.ColOfferPrice,
		domain.ColOfferSize,
	}
)

// VerifyTradeSchema checks a trade table's column set and returns a
// *SchemaError naming the first missing required column.
func VerifyTradeSchema(columns []string) error {
	return verify("trades", tradeColumns, columns)
}

// VerifyQuoteSchema checks a quote table's column set.
func VerifyQuoteSchema(columns []string) error {
	return verify("quotes", quoteColumns, columns)
}

func verify(table string, required, present []string) error {
	set := make(map[string]struct{}, len(present))
	for _, c := range present {
		set[c] = struct{}{}
	}
	for _, c := range required {
		if _, ok := set[c]; !ok {
			return &SchemaError{Table: table, Column: c}
		}
	}
	return nil
}
