package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"ticker": "TSLA",
	"company": "Tesla, Inc.",
	"current_price": 251.12,
	"next_day_price": 249.87,
	"rmse": 4.5,
	"mae": 3.1,
	"mape": 2.0,
	"accuracy": 95.25,
	"chart_dates_short": ["2025-11-12", "2025-11-13", "2025-11-14"],
	"actual_short": [240.1, 245.3, 251.12],
	"predicted_short": [238.7, 244.9, 250.02],
	"chart_dates_full": ["2015-03-30", "2015-03-31"],
	"actual_full": [12.1, 12.4],
	"predicted_full": [12.0, 12.2],
	"last_training_time": "2025-11-15 14:00",
	"model_version": "v1.0"
}`

func newTestClient(url string) *Client {
	return NewClient(Options{
		URL:        url + "/predict",
		Timeout:    5 * time.Second,
		RatePerSec: 1000,
	}, zerolog.Nop())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{URL: "http://127.0.0.1:5000/predict"}, zerolog.Nop())
	require.NotNil(t, client)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, int64(defaultMaxBodyBytes), client.maxBodyBytes)
	assert.NotNil(t, client.limiter)
}

func TestPredict_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"ticker": "TSLA"}, req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Predict(context.Background(), "  tsla ")
	require.NoError(t, err)

	assert.Equal(t, "TSLA", result.Ticker)
	assert.Equal(t, "Tesla, Inc.", result.Company)
	assert.Equal(t, 251.12, result.CurrentPrice)
	assert.Equal(t, 249.87, result.NextDayPrice)
	assert.Equal(t, 4.5, result.RMSE)
	assert.Equal(t, 95.25, result.Accuracy)
	assert.Equal(t, "2025-11-15 14:00", result.LastTrainingTime)
	assert.Equal(t, "v1.0", result.ModelVersion)
	assert.Len(t, result.ChartDatesShort, 3)
	assert.Equal(t, []float64{238.7, 244.9, 250.02}, result.PredictedShort)
	assert.Equal(t, []string{"2015-03-30", "2015-03-31"}, result.ChartDatesFull)
}

func TestPredict_EmptyTickerMakesNoCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	for _, ticker := range []string{"", "   "} {
		result, err := client.Predict(context.Background(), ticker)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrEmptyTicker)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPredict_StatusErrorKeepsServiceMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Invalid ticker or no data found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Predict(context.Background(), "NOPE")
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindStatus, pe.Kind)
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
	assert.Equal(t, "Invalid ticker or no data found", pe.Message)
	assert.Contains(t, err.Error(), "status 404")
}

func TestPredict_StatusErrorWithPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Predict(context.Background(), "TSLA")
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindStatus, pe.Kind)
	assert.Equal(t, "upstream exploded", pe.Message)
}

func TestPredict_MalformedBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errContains string
	}{
		{"not json", `<html>oops</html>`, "failed to decode response"},
		{"wrong shape", `{"rmse": "high"}`, "failed to decode response"},
		{"missing scalars", `{"ticker": "TSLA", "rmse": 1}`, "current_price"},
		{"empty object", `{}`, "ticker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			result, err := client.Predict(context.Background(), "TSLA")
			assert.Nil(t, result)
			require.Error(t, err)
			assert.Equal(t, KindMalformed, KindOf(err))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestPredict_ChartArraysAreOptional(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ticker":"AAPL","current_price":1,"next_day_price":2,"rmse":0,"mae":0,"mape":0,"accuracy":100}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Predict(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Nil(t, result.ChartDatesShort)
	assert.Nil(t, result.ChartDatesFull)
	assert.Equal(t, 0.0, result.RMSE)
}

func TestPredict_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(Options{URL: server.URL, RatePerSec: 1000, MaxBodyBytes: 16}, zerolog.Nop())

	_, err := client.Predict(context.Background(), "TSLA")
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestPredict_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(url)

	_, err := client.Predict(context.Background(), "TSLA")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestPredict_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Predict(ctx, "TSLA")
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPredict_NoRetryOnFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Predict(context.Background(), "TSLA")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "prediction service error: status 500 (Internal Server Error)",
		(&Error{Kind: KindStatus, StatusCode: 500}).Error())
	assert.True(t, strings.HasPrefix((&Error{Kind: KindTransport, Err: errors.New("dial")}).Error(), "prediction transport error"))
	assert.Equal(t, "prediction malformed error: too big", (&Error{Kind: KindMalformed, Message: "too big"}).Error())
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "TSLA", NormalizeTicker(" tsla\n"))
	assert.Equal(t, "BRK.B", NormalizeTicker("brk.b"))
	assert.Equal(t, "", NormalizeTicker("   "))
}
