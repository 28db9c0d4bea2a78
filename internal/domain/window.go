package domain

import (
	"fmt"
	"strings"
)

// Window identifies one of the two chart time windows
type Window string

const (
	// WindowShort is the trailing window of recent trading days (30 in practice)
	WindowShort Window = "short"
	// WindowFull is the entire available history
	WindowFull Window = "full"
)

// Windows lists the windows in display order
var Windows = []Window{WindowShort, WindowFull}

// ParseWindow converts a URL segment into a Window
func ParseWindow(s string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(s))) {
	case WindowShort:
		return WindowShort, nil
	case WindowFull:
		return WindowFull, nil
	}
	return "", fmt.Errorf("unknown chart window: %q", s)
}

// Title is the panel heading shown above the chart
func (w Window) Title() string {
	switch w {
	case WindowShort:
		return "Last 30 Days — Actual vs Predicted"
	case WindowFull:
		return "Full History — Actual vs Predicted"
	}
	return string(w)
}

// DownloadLabel is the caption of the export button
func (w Window) DownloadLabel() string {
	switch w {
	case WindowShort:
		return "Download Last 30 Days Chart"
	case WindowFull:
		return "Download Full History Chart"
	}
	return "Download Chart"
}

// Filename is the default name of the exported PNG
func (w Window) Filename() string {
	switch w {
	case WindowShort:
		return "last_30_days_chart.png"
	case WindowFull:
		return "full_history_chart.png"
	}
	return "chart.png"
}

// PanelHeight is the default chart height in pixels
func (w Window) PanelHeight() int {
	if w == WindowFull {
		return 450
	}
	return 350
}

// TickEvery is the spacing, in points, between labelled x-axis ticks
func (w Window) TickEvery() int {
	if w == WindowFull {
		return 61
	}
	return 5
}
