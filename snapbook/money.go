package snapbook

import (
	"fmt"
	"strconv"
	"strings"
)

// parseMonetary parses the monetary strings transactions are imported with.
// Accepted forms: "1234.56", "1,234.56", "1.234,56", "R$ 1.234,56",
// "$100", "-50.00", "(50.00)" (accounting negative). Empty parses as 0.
func parseMonetary(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}

	// Strip currency markers.
	for _, prefix := range []string{"R$", "$", "€", "£"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("monetary value %q has no digits", raw)
	}

	// The last separator wins as the decimal mark; the other kind is a
	// thousands separator and is dropped.
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("monetary value %q: %w", raw, err)
	}
	if negative {
		v = -v
	}
	return v, nil
}

// computeStatistics derives a book's aggregates from its live transaction
// set. Credits accumulate into income, everything else into expenses as an
// absolute value. Unparseable values count as zero rather than failing the
// whole capture.
func computeStatistics(txs []*Transaction) Statistics {
	stats := Statistics{TransactionCount: len(txs)}
	for _, t := range txs {
		v, err := parseMonetary(t.Value)
		if err != nil {
			continue
		}
		if t.TransactionType == "credit" {
			stats.TotalIncome += v
		} else {
			if v < 0 {
				v = -v
			}
			stats.TotalExpenses += v
		}
	}
	stats.NetAmount = stats.TotalIncome - stats.TotalExpenses
	return stats
}
