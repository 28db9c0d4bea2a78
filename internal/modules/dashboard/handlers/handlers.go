// Package handlers provides HTTP handlers for the dashboard.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/aristath/forecastboard/internal/domain"
	"github.com/aristath/forecastboard/internal/modules/charts"
	"github.com/aristath/forecastboard/internal/modules/dashboard"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SessionCookieName is the cookie carrying the dashboard session id
const SessionCookieName = "forecastboard_session"

// Handler handles dashboard HTTP requests
type Handler struct {
	service      *dashboard.Service
	page         *template.Template
	defaultWidth int
	log          zerolog.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(
	service *dashboard.Service,
	page *template.Template,
	defaultWidth int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:      service,
		page:         page,
		defaultWidth: defaultWidth,
		log:          log.With().Str("handler", "dashboard").Logger(),
	}
}

// session returns the caller's session, issuing a cookie for a new one
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	var id string
	if c, err := r.Cookie(SessionCookieName); err == nil {
		id = c.Value
	}

	sess, created := h.service.Store().GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// HandleIndex handles GET /
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	view := h.service.View(sess, h.defaultWidth)

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, view); err != nil {
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to render dashboard")
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// HandleSubmit handles POST /predict from the ticker form
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	if _, err := h.service.Submit(sess, r.PostForm.Get("ticker")); err != nil {
		// The form disables the button while loading, so this is a double submit
		h.log.Debug().Err(err).Str("session_id", sess.ID).Msg("Submit rejected")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleReset handles POST /reset
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset(h.session(w, r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type predictRequest struct {
	Ticker string `json:"ticker"`
}

// HandleAPIPredict handles POST /api/predict
func (h *Handler) HandleAPIPredict(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	submitted, err := h.service.Submit(sess, req.Ticker)
	switch {
	case errors.Is(err, dashboard.ErrPredictionInFlight):
		h.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, dashboard.ErrServiceClosed):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Str("session_id", sess.ID).Msg("Submit failed")
		h.writeError(w, http.StatusInternalServerError, "Failed to submit prediction")
		return
	case !submitted:
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusAccepted, h.service.State(sess, h.defaultWidth))
}

// HandleGetState handles GET /api/state
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	h.writeJSON(w, http.StatusOK, h.service.State(sess, h.defaultWidth))
}

// HandleChartImage handles GET /charts/{window}, the inline image of a panel
func (h *Handler) HandleChartImage(w http.ResponseWriter, r *http.Request) {
	window, err := domain.ParseWindow(chi.URLParam(r, "window"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sess := h.session(w, r)
	capture, err := h.service.Render(sess, window, h.sizeFor(r, window))
	if err != nil {
		if errors.Is(err, charts.ErrChartNotReady) {
			http.Error(w, dashboard.NoticeChartNotReady, http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("window", string(window)).Msg("Failed to render chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	h.writeCapture(w, capture, "inline")
}

// HandleChartDownload handles GET /charts/{window}/download. On failure the session
// gets a notice and the browser is sent back to the dashboard, where it is shown.
func (h *Handler) HandleChartDownload(w http.ResponseWriter, r *http.Request) {
	window, err := domain.ParseWindow(chi.URLParam(r, "window"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sess := h.session(w, r)
	capture, err := h.service.Export(sess, window, h.sizeFor(r, window))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.writeCapture(w, capture, "attachment")
}

// sizeFor reads the panel's on-screen size from the w and h query parameters,
// falling back to the window's default panel size
func (h *Handler) sizeFor(r *http.Request, window domain.Window) charts.Size {
	size := charts.Size{Width: h.defaultWidth, Height: window.PanelHeight()}
	if v, err := strconv.Atoi(r.URL.Query().Get("w")); err == nil {
		size.Width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("h")); err == nil {
		size.Height = v
	}
	return size
}

func (h *Handler) writeCapture(w http.ResponseWriter, capture *charts.Capture, disposition string) {
	w.Header().Set("Content-Type", capture.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(capture.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, capture.Filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(capture.Data)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
