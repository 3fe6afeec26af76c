package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/memobot/internal/config"
)

type stubValidator struct {
	valid bool
	calls int
	url   string
}

func (s *stubValidator) ValidRequest(u string, _ map[string]string, _ string) bool {
	s.calls++
	s.url = u
	return s.valid
}

func postMessage(t *testing.T, h http.Handler, from, body string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"From": {from}, "Body": {body}}
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "sig")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	h := app.Handler()

	rec := postMessage(t, h, "whatsapp:+15551234567", "help")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<Response><Message>"))
	assert.Contains(t, rec.Body.String(), "view 3")

	rec = postMessage(t, h, "whatsapp:+15551234567", "add")
	assert.Contains(t, rec.Body.String(), "Send the text of your note")

	s, err := app.controller.Session(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.True(t, s.Active(), "sessions are keyed by the bare number")
}

func TestWebhookRejectsEmptyMessage(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := postMessage(t, app.Handler(), "whatsapp:+15551234567", "  ")
	assert.Contains(t, rec.Body.String(), "I need a message to work with")
}

func TestWebhookSignatureValidation(t *testing.T) {
	t.Parallel()

	validator := &stubValidator{valid: false}
	app := newTestApp(t, func(c *config.Config, d *Deps) {
		c.TwilioValidateSignature = true
		c.PublicWebhookURL = "https://memo.example.com/twilio/webhook"
		d.Validator = validator
	})

	rec := postMessage(t, app.Handler(), "whatsapp:+15551234567", "help")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, validator.calls)
	assert.Equal(t, "https://memo.example.com/twilio/webhook", validator.url)

	validator.valid = true
	rec = postMessage(t, app.Handler(), "whatsapp:+15551234567", "help")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookSkipsValidationWhenDisabled(t *testing.T) {
	t.Parallel()

	validator := &stubValidator{valid: false}
	app := newTestApp(t, func(_ *config.Config, d *Deps) {
		d.Validator = validator
	})

	rec := postMessage(t, app.Handler(), "whatsapp:+15551234567", "help")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, validator.calls)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	broken := newTestApp(t, func(_ *config.Config, d *Deps) {
		d.Ping = func(context.Context) error { return errors.New("down") }
	})
	rec = httptest.NewRecorder()
	broken.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDecodeTwilioForm(t *testing.T) {
	t.Parallel()

	got := DecodeTwilioForm(url.Values{"From": {"a", "b"}, "Body": {"hi"}, "Empty": {}})
	assert.Equal(t, map[string]string{"From": "a", "Body": "hi"}, got)
}
