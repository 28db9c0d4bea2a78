// Package predictor provides a client for the remote stock prediction service.
// The service takes a ticker and answers with model metrics plus actual vs predicted
// closing prices for a recent window and for the full history.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/forecastboard/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 120 * time.Second
	defaultRatePerSec   = 2.0
	defaultMaxBodyBytes = 32 << 20
	maxErrorBodyBytes   = 4 << 10
)

// ErrEmptyTicker is returned before any network activity when the ticker is blank.
var ErrEmptyTicker = errors.New("ticker is required")

// Options configures a Client
type Options struct {
	URL          string
	Timeout      time.Duration
	RatePerSec   float64
	MaxBodyBytes int64
}

// Client calls the prediction endpoint. Calls are paced by a shared rate limiter
// and never retried.
type Client struct {
	url          string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxBodyBytes int64
	log          zerolog.Logger
}

// NewClient creates a new prediction service client
func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = defaultRatePerSec
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &Client{
		url: opts.URL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		maxBodyBytes: opts.MaxBodyBytes,
		log:          log.With().Str("component", "predictor_client").Logger(),
	}
}

// NormalizeTicker trims and upper-cases a ticker the way the input form does
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

type predictRequest struct {
	Ticker string `json:"ticker"`
}

// predictResponse mirrors domain.PredictionResult with pointer scalars so that
// missing fields can be told apart from zero values.
type predictResponse struct {
	Ticker           *string  `json:"ticker"`
	Company          string   `json:"company"`
	CurrentPrice     *float64 `json:"current_price"`
	NextDayPrice     *float64 `json:"next_day_price"`
	RMSE             *float64 `json:"rmse"`
	MAE              *float64 `json:"mae"`
	MAPE             *float64 `json:"mape"`
	Accuracy         *float64 `json:"accuracy"`
	LastTrainingTime string   `json:"last_training_time"`
	ModelVersion     string   `json:"model_version"`

	ChartDatesShort []string  `json:"chart_dates_short"`
	ActualShort     []float64 `json:"actual_short"`
	PredictedShort  []float64 `json:"predicted_short"`
	ChartDatesFull  []string  `json:"chart_dates_full"`
	ActualFull      []float64 `json:"actual_full"`
	PredictedFull   []float64 `json:"predicted_full"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Predict requests a prediction for ticker. The ticker is normalized first; an empty
// ticker returns ErrEmptyTicker without calling the service. Every other failure is
// an *Error carrying its Kind.
func (c *Client) Predict(ctx context.Context, ticker string) (*domain.PredictionResult, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return nil, ErrEmptyTicker
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("waiting for rate limiter: %w", err)}
	}

	body, err := json.Marshal(predictRequest{Ticker: ticker})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("ticker", ticker).Str("url", c.url).Msg("Requesting prediction")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if int64(len(data)) > c.maxBodyBytes {
		return nil, &Error{
			Kind:       KindMalformed,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response body exceeds %d bytes", c.maxBodyBytes),
		}
	}

	result, err := decodeResult(data)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Malformed prediction response")
		return nil, &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug().
		Str("ticker", result.Ticker).
		Int("short_points", len(result.ChartDatesShort)).
		Int("full_points", len(result.ChartDatesFull)).
		Dur("duration", time.Since(start)).
		Msg("Prediction received")

	return result, nil
}

// statusError builds a KindStatus error, keeping the service's own message if it sent one
func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	message := strings.TrimSpace(string(raw))
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
		message = er.Error
	}

	c.log.Warn().
		Int("status", resp.StatusCode).
		Str("message", message).
		Msg("Prediction service returned an error status")

	return &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Message: message}
}

// decodeResult parses a success body and checks that every scalar field is present
func decodeResult(data []byte) (*domain.PredictionResult, error) {
	var wire predictResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var missing []string
	if wire.Ticker == nil {
		missing = append(missing, "ticker")
	}
	checks := []struct {
		name  string
		value *float64
	}{
		{"current_price", wire.CurrentPrice},
		{"next_day_price", wire.NextDayPrice},
		{"rmse", wire.RMSE},
		{"mae", wire.MAE},
		{"mape", wire.MAPE},
		{"accuracy", wire.Accuracy},
	}
	for _, check := range checks {
		if check.value == nil {
			missing = append(missing, check.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("response missing fields: %s", strings.Join(missing, ", "))
	}

	return &domain.PredictionResult{
		Ticker:           *wire.Ticker,
		Company:          wire.Company,
		CurrentPrice:     *wire.CurrentPrice,
		NextDayPrice:     *wire.NextDayPrice,
		RMSE:             *wire.RMSE,
		MAE:              *wire.MAE,
		MAPE:             *wire.MAPE,
		Accuracy:         *wire.Accuracy,
		LastTrainingTime: wire.LastTrainingTime,
		ModelVersion:     wire.ModelVersion,
		ChartDatesShort:  wire.ChartDatesShort,
		ActualShort:      wire.ActualShort,
		PredictedShort:   wire.PredictedShort,
		ChartDatesFull:   wire.ChartDatesFull,
		ActualFull:       wire.ActualFull,
		PredictedFull:    wire.PredictedFull,
	}, nil
}
