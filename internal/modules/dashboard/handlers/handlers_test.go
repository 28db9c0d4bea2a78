package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/forecastboard/internal/domain"
	"github.com/aristath/forecastboard/internal/events"
	"github.com/aristath/forecastboard/internal/modules/charts"
	"github.com/aristath/forecastboard/internal/modules/dashboard"
	"github.com/aristath/forecastboard/pkg/embedded"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Predict(ctx context.Context, ticker string) (*domain.PredictionResult, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PredictionResult), args.Error(1)
}

func sampleResult() *domain.PredictionResult {
	return &domain.PredictionResult{
		Ticker:           "TSLA",
		Company:          "Tesla, Inc.",
		CurrentPrice:     251.12,
		NextDayPrice:     249.87,
		RMSE:             4.5,
		MAE:              3.1,
		MAPE:             2.0,
		Accuracy:         95.25,
		LastTrainingTime: "2025-11-15 14:00",
		ModelVersion:     "v1.0",
		ChartDatesShort:  []string{"2025-11-12", "2025-11-13", "2025-11-14"},
		ActualShort:      []float64{240.1, 245.3, 251.12},
		PredictedShort:   []float64{238.7, 244.9, 250.02},
	}
}

type testEnv struct {
	predictor *mockPredictor
	service   *dashboard.Service
	router    chi.Router
	cookie    *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	page, err := embedded.DashboardTemplate()
	require.NoError(t, err)

	p := new(mockPredictor)
	svc := dashboard.NewService(
		p,
		charts.NewService(charts.NewRenderer(), logger),
		dashboard.NewStore(logger),
		events.NewManager(events.NewBus(logger), logger),
		logger,
	)

	handler := NewHandler(svc, page, 950, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	router.Route("/api", handler.RegisterAPIRoutes)

	return &testEnv{predictor: p, service: svc, router: router}
}

// do sends a request carrying the session cookie, remembering the one issued
func (e *testEnv) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			e.cookie = c
		}
	}
	return w
}

func (e *testEnv) submit(ticker string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/predict", "ticker="+ticker, "application/x-www-form-urlencoded")
}

func TestHandleIndex_IssuesSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.NotNil(t, env.cookie)
	assert.True(t, env.cookie.HttpOnly)
	assert.Contains(t, w.Body.String(), "Enter Stock Symbol (e.g. TSLA)")
	assert.NotContains(t, w.Body.String(), "Model Insights")

	// Same session on the next request, no new cookie
	first := env.cookie.Value
	w = env.do(http.MethodGet, "/", "", "")
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, first, env.cookie.Value)
	assert.Equal(t, 1, env.service.Store().Len())
}

func TestHandleSubmit_ResultPage(t *testing.T) {
	env := newTestEnv(t)
	env.predictor.On("Predict", mock.Anything, "TSLA").Return(sampleResult(), nil).Once()

	w := env.submit("tsla")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	env.service.Wait()

	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "RMSE: 4.50")
	assert.Contains(t, body, "MAE: 3.10")
	assert.Contains(t, body, "MAPE: 2.00%")
	assert.Contains(t, body, "Accuracy: 95.25%")
	assert.Contains(t, body, "Current Price: $251.12")
	assert.Contains(t, body, "Next Day Predicted Price: $249.87")
	assert.Contains(t, body, "Download Last 30 Days Chart")
	assert.NotContains(t, body, "Download Full History Chart")
	env.predictor.AssertExpectations(t)
}

func TestHandleSubmit_EmptyTicker(t *testing.T) {
	env := newTestEnv(t)

	w := env.submit("+++")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	env.service.Wait()

	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, "Predicting")
	assert.NotContains(t, body, `role="alert"`)
	env.predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestHandleSubmit_LoadingPage(t *testing.T) {
	env := newTestEnv(t)
	release := make(chan struct{})
	env.predictor.On("Predict", mock.Anything, "TSLA").
		Run(func(mock.Arguments) { <-release }).
		Return(sampleResult(), nil).Once()

	env.submit("TSLA")
	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Predicting… Please wait")
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, "disabled")
	assert.NotContains(t, body, "Model Insights")

	close(release)
	env.service.Wait()
}

func TestHandleSubmit_FailureShowsNoticeOnce(t *testing.T) {
	env := newTestEnv(t)
	env.predictor.On("Predict", mock.Anything, "NOPE").Return(nil, assert.AnError).Once()

	env.submit("NOPE")
	env.service.Wait()

	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Error occurred while predicting. Make sure ticker is valid and backend is running.")

	body = env.do(http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, "Error occurred while predicting")
}

func TestHandleAPIPredict(t *testing.T) {
	env := newTestEnv(t)
	release := make(chan struct{})
	env.predictor.On("Predict", mock.Anything, "TSLA").
		Run(func(mock.Arguments) { <-release }).
		Return(sampleResult(), nil).Once()

	w := env.do(http.MethodPost, "/api/predict", `{"ticker":"tsla"}`, "application/json")
	assert.Equal(t, http.StatusAccepted, w.Code)

	var view dashboard.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, dashboard.PhaseLoading, view.Phase)
	assert.True(t, view.Loading)
	assert.Equal(t, "TSLA", view.Ticker)

	w = env.do(http.MethodPost, "/api/predict", `{"ticker":"AAPL"}`, "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	env.service.Wait()

	w = env.do(http.MethodGet, "/api/state", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, dashboard.PhaseResult, view.Phase)
	require.NotNil(t, view.Insights)
	assert.Equal(t, "RMSE: 4.50", view.Insights.RMSE)
	require.Len(t, view.Panels, 1)
	assert.Equal(t, "last_30_days_chart.png", view.Panels[0].Filename)
}

func TestHandleAPIPredict_BadInput(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/predict", `{"ticker":`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/predict", `{"ticker":"  "}`, "application/json")
	assert.Equal(t, http.StatusNoContent, w.Code)
	env.predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestHandleChartDownload(t *testing.T) {
	env := newTestEnv(t)
	env.predictor.On("Predict", mock.Anything, "TSLA").Return(sampleResult(), nil).Once()
	env.submit("TSLA")
	env.service.Wait()

	w := env.do(http.MethodGet, "/charts/short/download?w=640&h=350", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="last_30_days_chart.png"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestHandleChartDownload_NotMounted(t *testing.T) {
	env := newTestEnv(t)
	env.predictor.On("Predict", mock.Anything, "TSLA").Return(sampleResult(), nil).Once()
	env.submit("TSLA")
	env.service.Wait()

	w := env.do(http.MethodGet, "/charts/full/download", "", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Graph not ready")
}

func TestHandleChartDownload_ResetElsewhereShowsNotice(t *testing.T) {
	env := newTestEnv(t)
	env.predictor.On("Predict", mock.Anything, "TSLA").Return(sampleResult(), nil).Once()
	env.submit("TSLA")
	env.service.Wait()

	// The link is a plain navigation so a failed export lands back on the page
	page := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, page, `class="download-btn" href="/charts/short/download`)
	assert.NotContains(t, page, "download=")

	// Session reset from another tab while the old page is still open
	env.do(http.MethodPost, "/reset", "", "")

	w := env.do(http.MethodGet, "/charts/short/download?w=640&h=350", "", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, `data-notice="Graph not ready"`)
}

func TestHandleChartImage(t *testing.T) {
	env := newTestEnv(t)

	// No result yet
	w := env.do(http.MethodGet, "/charts/short", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.predictor.On("Predict", mock.Anything, "TSLA").Return(sampleResult(), nil).Once()
	env.submit("TSLA")
	env.service.Wait()

	w = env.do(http.MethodGet, "/charts/short?w=800&h=300", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `inline; filename="last_30_days_chart.png"`, w.Header().Get("Content-Disposition"))

	w = env.do(http.MethodGet, "/charts/weekly", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Inline rendering never leaves a notice behind
	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, `role="alert"`)
}

func TestHandleReset(t *testing.T) {
	env := newTestEnv(t)
	env.predictor.On("Predict", mock.Anything, "TSLA").Return(sampleResult(), nil).Once()
	env.submit("TSLA")
	env.service.Wait()

	w := env.do(http.MethodPost, "/reset", "", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)

	body := env.do(http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, "Model Insights")
}

func TestSizeFor(t *testing.T) {
	h := &Handler{defaultWidth: 950}

	r := httptest.NewRequest(http.MethodGet, "/charts/full", nil)
	assert.Equal(t, charts.Size{Width: 950, Height: 450}, h.sizeFor(r, domain.WindowFull))

	r = httptest.NewRequest(http.MethodGet, "/charts/short?w=1200&h=abc", nil)
	assert.Equal(t, charts.Size{Width: 1200, Height: 350}, h.sizeFor(r, domain.WindowShort))
}
