package coingecko

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"crypto-reporter/internal/config"
	"crypto-reporter/internal/logger"
)

const testBaseURL = "http://coingecko.test/api/v3"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.Default().CoinGecko
	cfg.BaseURL = testBaseURL
	cfg.Timeout = 2 * time.Second

	c := NewClient(cfg, logger.Nop())
	gock.InterceptClient(c.HTTPClient())
	t.Cleanup(func() {
		gock.RestoreClient(c.HTTPClient())
		gock.Off()
	})
	return c
}

func TestMarketsSendsFixedQuery(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Get("/coins/markets").
		MatchParams(map[string]string{
			"vs_currency": "usd",
			"order":       "market_cap_desc",
			"per_page":    "50",
			"page":        "1",
			"sparkline":   "false",
		}).
		Reply(200).
		JSON([]map[string]interface{}{
			{
				"name":                        "Bitcoin",
				"symbol":                      "btc",
				"current_price":               67000.5,
				"market_cap":                  1.3e12,
				"total_volume":                2.5e10,
				"price_change_percentage_24h": 1.25,
			},
			{
				"name":                        "Tether",
				"symbol":                      "usdt",
				"current_price":               1.0,
				"market_cap":                  1.1e11,
				"total_volume":                4.0e10,
				"price_change_percentage_24h": nil,
			},
		})

	snapshot, err := c.Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	assert.Equal(t, "Bitcoin", snapshot[0].Name)
	assert.Equal(t, "btc", snapshot[0].Symbol)
	require.NotNil(t, snapshot[0].CurrentPrice)
	assert.Equal(t, 67000.5, *snapshot[0].CurrentPrice)
	assert.Equal(t, 1.3e12, snapshot[0].MarketCap)
	assert.Equal(t, 2.5e10, snapshot[0].TotalVolume)
	require.NotNil(t, snapshot[0].PriceChangePercentage24h)
	assert.Equal(t, 1.25, *snapshot[0].PriceChangePercentage24h)

	assert.Nil(t, snapshot[1].PriceChangePercentage24h)
	assert.True(t, gock.IsDone())
}

func TestMarketsNonOKStatus(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Get("/coins/markets").
		Reply(404)

	snapshot, err := c.Markets(context.Background())
	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 404, statusErr.Code)
}

func TestMarketsBadBody(t *testing.T) {
	c := newTestClient(t)

	gock.New(testBaseURL).
		Get("/coins/markets").
		Reply(200).
		BodyString(`{"status":{"error_code":429}}`)

	_, err := c.Markets(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnexpectedStatus)
}

func TestFetchReturnsEmptyOnFailure(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t)
		gock.New(testBaseURL).Get("/coins/markets").Reply(429)

		assert.Empty(t, c.Fetch(context.Background()))
	})

	t.Run("transport", func(t *testing.T) {
		c := newTestClient(t)
		// no mock registered: the intercepted transport refuses the request

		assert.Empty(t, c.Fetch(context.Background()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := newTestClient(t)
		gock.New(testBaseURL).Get("/coins/markets").Reply(200).JSON([]interface{}{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Empty(t, c.Fetch(ctx))
	})
}

func TestFetchSuccess(t *testing.T) {
	c := newTestClient(t)
	gock.New(testBaseURL).
		Get("/coins/markets").
		Reply(200).
		JSON([]map[string]interface{}{{"name": "Ethereum", "symbol": "eth", "current_price": 3100, "market_cap": 3.7e11}})

	snapshot := c.Fetch(context.Background())
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Ethereum", snapshot[0].Name)
	assert.Nil(t, snapshot[0].PriceChangePercentage24h)
}
