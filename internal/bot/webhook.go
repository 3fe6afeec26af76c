package bot

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"

	"github.com/pathakanu/memobot/internal/twilio"
)

// Handler returns the HTTP routes: the Twilio webhook and a health check.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(a.log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))

	r.Post("/twilio/webhook", a.handleIncomingMessage)
	r.Get("/healthz", a.handleHealth)
	return r
}

// handleIncomingMessage processes Twilio webhook POST requests.
func (a *App) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.log.Warn().Err(err).Msg("webhook: parse error")
		a.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	if a.validator != nil {
		signature := r.Header.Get("X-Twilio-Signature")
		if !a.validator.ValidRequest(a.cfg.PublicWebhookURL, DecodeTwilioForm(r.PostForm), signature) {
			a.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook: invalid signature")
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	from := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		a.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	a.writeTwilioResponse(w, a.Reply(r.Context(), twilio.UserID(from), body))
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			a.log.Error().Err(err).Msg("health check")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (a *App) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		a.log.Error().Err(err).Msg("twilio response encode")
	}
}

// DecodeTwilioForm extracts the POST form data into a map for signature validation.
func DecodeTwilioForm(values url.Values) map[string]string {
	result := make(map[string]string, len(values))
	for key, value := range values {
		if len(value) > 0 {
			result[key] = value[0]
		}
	}
	return result
}
