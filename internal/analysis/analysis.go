// Package analysis derives the summary statistics shown on the report's
// Analysis sheet.
package analysis

import (
	"errors"
	"sort"
	"time"

	"crypto-reporter/internal/models"
)

// TopMarketCapCount is how many records the market cap ranking keeps.
const TopMarketCapCount = 5

var ErrEmptySnapshot = errors.New("empty snapshot")

// Analyze computes the summary of one snapshot.
//
// Records with a nil price are left out of the average and records with a
// nil 24h change are left out of the extremes. Ties keep snapshot order:
// the ranking uses a stable sort and the first extreme encountered wins.
func Analyze(snapshot models.Snapshot) (*models.AnalysisResult, error) {
	if len(snapshot) == 0 {
		return nil, ErrEmptySnapshot
	}

	result := &models.AnalysisResult{
		TopMarketCap: TopByMarketCap(snapshot, TopMarketCapCount),
		GeneratedAt:  time.Now(),
	}
	result.AveragePrice, result.PricedAssets = AveragePrice(snapshot)
	result.HighestChange, result.LowestChange = ChangeExtremes(snapshot)
	return result, nil
}

// TopByMarketCap returns the n largest records by market cap, descending.
func TopByMarketCap(snapshot models.Snapshot, n int) []models.MarketCapEntry {
	ranked := make(models.Snapshot, len(snapshot))
	copy(ranked, snapshot)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MarketCap > ranked[j].MarketCap
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	top := make([]models.MarketCapEntry, 0, n)
	for _, r := range ranked[:n] {
		top = append(top, models.MarketCapEntry{Name: r.Name, MarketCap: r.MarketCap})
	}
	return top
}

// AveragePrice returns the mean current price and how many records had one.
func AveragePrice(snapshot models.Snapshot) (float64, int) {
	var sum float64
	count := 0
	for _, r := range snapshot {
		if r.CurrentPrice == nil {
			continue
		}
		sum += *r.CurrentPrice
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

// ChangeExtremes returns copies of the records with the highest and lowest
// 24h price change, or nils when no record has one.
func ChangeExtremes(snapshot models.Snapshot) (highest, lowest *models.AssetRecord) {
	hi, lo := -1, -1
	for i, r := range snapshot {
		if r.PriceChangePercentage24h == nil {
			continue
		}
		change := *r.PriceChangePercentage24h
		if hi < 0 || change > *snapshot[hi].PriceChangePercentage24h {
			hi = i
		}
		if lo < 0 || change < *snapshot[lo].PriceChangePercentage24h {
			lo = i
		}
	}
	if hi < 0 {
		return nil, nil
	}

	h, l := snapshot[hi], snapshot[lo]
	return &h, &l
}
