package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"crypto-reporter/internal/config"
	"crypto-reporter/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const marketsPath = "/coins/markets"

var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is returned by Markets for any non-200 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

type Client struct {
	cfg    config.CoinGecko
	client *resty.Client
	log    *zap.SugaredLogger
}

func NewClient(cfg config.CoinGecko, log *zap.SugaredLogger) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	return &Client{
		cfg:    cfg,
		client: client,
		log:    log,
	}
}

// HTTPClient exposes the underlying client so tests can swap the transport.
func (c *Client) HTTPClient() *http.Client {
	return c.client.GetClient()
}

func (c *Client) queryParams() map[string]string {
	return map[string]string{
		"vs_currency": c.cfg.VsCurrency,
		"order":       c.cfg.Order,
		"per_page":    strconv.Itoa(c.cfg.PerPage),
		"page":        strconv.Itoa(c.cfg.Page),
		"sparkline":   strconv.FormatBool(c.cfg.Sparkline),
	}
}

// Markets fetches one page of market records.
func (c *Client) Markets(ctx context.Context) (models.Snapshot, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(c.queryParams()).
		Get(marketsPath)
	if err != nil {
		return nil, fmt.Errorf("request markets: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode()}
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(resp.Body(), &snapshot); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	return snapshot, nil
}

// Fetch is Markets with every failure logged and turned into an empty
// snapshot, so callers only have to check the length.
func (c *Client) Fetch(ctx context.Context) models.Snapshot {
	snapshot, err := c.Markets(ctx)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			c.log.Warnf("Error fetching data: %d", statusErr.Code)
		} else {
			c.log.Warnf("Error fetching data: %v", err)
		}
		return nil
	}
	return snapshot
}
