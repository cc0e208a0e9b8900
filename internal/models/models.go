package models

import "time"

// AssetRecord is one row of the CoinGecko /coins/markets response.
// CurrentPrice and PriceChangePercentage24h are nil when the API sends null.
type AssetRecord struct {
	Name                     string   `json:"name"`
	Symbol                   string   `json:"symbol"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                float64  `json:"market_cap"`
	TotalVolume              float64  `json:"total_volume"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

// Snapshot is one fetched page of records, in the order the API returned them.
type Snapshot []AssetRecord

type MarketCapEntry struct {
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
}

// AnalysisResult holds the summary values derived from a single Snapshot.
type AnalysisResult struct {
	TopMarketCap  []MarketCapEntry `json:"top_market_cap"`
	AveragePrice  float64          `json:"average_price"`
	PricedAssets  int              `json:"priced_assets"` // records that contributed to AveragePrice
	HighestChange *AssetRecord     `json:"highest_change"`
	LowestChange  *AssetRecord     `json:"lowest_change"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

const (
	CycleStatusOK      = "ok"
	CycleStatusSkipped = "skipped"
	CycleStatusFailed  = "failed"
)

// CycleRun records the outcome of one fetch → analyze → report iteration.
type CycleRun struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StartedAt    time.Time `json:"started_at" gorm:"index;not null"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       string    `json:"status" gorm:"type:varchar(16);index"`
	AssetCount   int       `json:"asset_count"`
	AveragePrice *float64  `json:"average_price"`
	ReportPath   string    `json:"report_path" gorm:"type:varchar(512)"`
	Error        string    `json:"error,omitempty" gorm:"type:text"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
