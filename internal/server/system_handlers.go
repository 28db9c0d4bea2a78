package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DashboardStats reports dashboard load
type DashboardStats interface {
	SessionCount() int
	InFlight() int
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status              string  `json:"status"`
	UptimeSeconds       int64   `json:"uptime_seconds"`
	Sessions            int     `json:"sessions"`
	InFlightPredictions int     `json:"in_flight_predictions"`
	Goroutines          int     `json:"goroutines"`
	CPUPercent          float64 `json:"cpu_percent"`
	RAMPercent          float64 `json:"ram_percent"`
	LastUpdated         string  `json:"last_updated"`
}

// SystemHandlers serves process and host status
type SystemHandlers struct {
	stats     DashboardStats
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(stats DashboardStats, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		stats:     stats,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		LastUpdated:   time.Now().Format(time.RFC3339),
	}
	if h.stats != nil {
		response.Sessions = h.stats.SessionCount()
		response.InFlightPredictions = h.stats.InFlight()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the call short.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
