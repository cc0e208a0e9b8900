package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"crypto-reporter/internal/models"
)

const notAvailable = "N/A"

// FormatTopMarketCap renders the ranking as a right-aligned two-column
// table with a "name market_cap" header, one entry per line.
func FormatTopMarketCap(entries []models.MarketCapEntry) string {
	names := []string{"name"}
	caps := []string{"market_cap"}
	for _, e := range entries {
		names = append(names, e.Name)
		caps = append(caps, strconv.FormatFloat(e.MarketCap, 'f', -1, 64))
	}

	nameWidth, capWidth := maxWidth(names), maxWidth(caps)
	lines := make([]string, len(names))
	for i := range names {
		lines[i] = fmt.Sprintf("%*s %*s", nameWidth, names[i], capWidth, caps[i])
	}
	return strings.Join(lines, "\n")
}

// FormatAveragePrice renders the mean price as "$1234.56".
func FormatAveragePrice(result *models.AnalysisResult) string {
	if result.PricedAssets == 0 {
		return notAvailable
	}
	return fmt.Sprintf("$%.2f", result.AveragePrice)
}

// FormatChange renders a record as "<name> (<pct>%)".
func FormatChange(record *models.AssetRecord) string {
	if record == nil || record.PriceChangePercentage24h == nil {
		return notAvailable
	}
	return fmt.Sprintf("%s (%.2f%%)", record.Name, *record.PriceChangePercentage24h)
}

func maxWidth(values []string) int {
	width := 0
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n > width {
			width = n
		}
	}
	return width
}
