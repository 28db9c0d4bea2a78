package dashboard

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/aristath/forecastboard/internal/domain"
	"github.com/aristath/forecastboard/internal/modules/charts"
)

// Metrics are the model error metrics formatted for display
type Metrics struct {
	RMSE     string `json:"rmse"`
	MAE      string `json:"mae"`
	MAPE     string `json:"mape"`
	Accuracy string `json:"accuracy"`
}

// FormatMetrics formats error metrics to two decimals with their labels
func FormatMetrics(rmse, mae, mape, accuracy float64) Metrics {
	return Metrics{
		RMSE:     fmt.Sprintf("RMSE: %.2f", rmse),
		MAE:      fmt.Sprintf("MAE: %.2f", mae),
		MAPE:     fmt.Sprintf("MAPE: %.2f%%", mape),
		Accuracy: fmt.Sprintf("Accuracy: %.2f%%", accuracy),
	}
}

// Insights is the model insights block
type Insights struct {
	Metrics
	LastTraining string `json:"last_training"`
	ModelVersion string `json:"model_version"`
}

// Stock is the stock summary block
type Stock struct {
	Heading      string `json:"heading"`
	CurrentPrice string `json:"current_price"`
	NextDayPrice string `json:"next_day_price"`
}

// PanelView is a mounted chart panel
type PanelView struct {
	Window        domain.Window `json:"window"`
	Title         string        `json:"title"`
	DownloadLabel string        `json:"download_label"`
	Filename      string        `json:"filename"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Points        int           `json:"points"`
	Stats         Metrics       `json:"stats"`
	ImageURL      string        `json:"image_url"`
	DownloadURL   string        `json:"download_url"`
}

// View is everything the dashboard page renders for a session
type View struct {
	SessionID string      `json:"session_id"`
	Phase     Phase       `json:"phase"`
	Loading   bool        `json:"loading"`
	Ticker    string      `json:"ticker"`
	Notice    string      `json:"notice,omitempty"`
	Insights  *Insights   `json:"insights,omitempty"`
	Stock     *Stock      `json:"stock,omitempty"`
	Panels    []PanelView `json:"panels"`
}

// BuildView assembles the view of snap. Results and charts appear only in the result
// phase, and only panels with rows are mounted.
func BuildView(snap Snapshot, panels []charts.Panel, defaultWidth int) View {
	v := View{
		SessionID: snap.ID,
		Phase:     snap.Phase,
		Loading:   snap.Phase == PhaseLoading,
		Ticker:    snap.Ticker,
		Notice:    snap.Notice,
		Panels:    []PanelView{},
	}

	if snap.Phase != PhaseResult || snap.Result == nil {
		return v
	}

	r := snap.Result
	v.Insights = &Insights{
		Metrics:      FormatMetrics(r.RMSE, r.MAE, r.MAPE, r.Accuracy),
		LastTraining: r.LastTrainingTime,
		ModelVersion: r.ModelVersion,
	}
	v.Stock = &Stock{
		Heading:      fmt.Sprintf("%s (%s)", r.Company, r.Ticker),
		CurrentPrice: fmt.Sprintf("Current Price: $%.2f", r.CurrentPrice),
		NextDayPrice: fmt.Sprintf("Next Day Predicted Price: $%.2f", r.NextDayPrice),
	}

	for i := range panels {
		p := &panels[i]
		if !p.Mounted() {
			continue
		}
		height := p.Window.PanelHeight()
		v.Panels = append(v.Panels, PanelView{
			Window:        p.Window,
			Title:         p.Title,
			DownloadLabel: p.Window.DownloadLabel(),
			Filename:      p.Window.Filename(),
			Width:         defaultWidth,
			Height:        height,
			Points:        p.Stats.Points,
			Stats:         FormatMetrics(p.Stats.RMSE, p.Stats.MAE, p.Stats.MAPE, p.Stats.Accuracy),
			ImageURL:      chartURL(p.Window, "", defaultWidth, height),
			DownloadURL:   chartURL(p.Window, "/download", defaultWidth, height),
		})
	}

	return v
}

func chartURL(w domain.Window, suffix string, width, height int) string {
	q := url.Values{}
	q.Set("w", strconv.Itoa(width))
	q.Set("h", strconv.Itoa(height))
	return "/charts/" + string(w) + suffix + "?" + q.Encode()
}
