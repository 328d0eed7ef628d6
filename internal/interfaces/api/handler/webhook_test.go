package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/avilar/recordatorio-bot/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

type recordedEvent struct {
	UserID string
	Text   string
}

type fakeConversation struct {
	events []recordedEvent
}

func (f *fakeConversation) HandleMessage(_ context.Context, rawUserID, rawText string) error {
	f.events = append(f.events, recordedEvent{UserID: rawUserID, Text: rawText})
	return nil
}

func postForm(t *testing.T, h *WebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleInbound(c); err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}
	return rec
}

func TestInboundDispatchesText(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWebhookHandler(conv, "+10000000000", logger.Discard())

	rec := postForm(t, h, url.Values{
		"From": {"whatsapp:+5215551234567"},
		"Body": {"menu"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(conv.events) != 1 {
		t.Fatalf("expected one dispatched event, got %d", len(conv.events))
	}
	if got := conv.events[0]; got.UserID != "whatsapp:+5215551234567" || got.Text != "menu" {
		t.Fatalf("unexpected event %+v", got)
	}
	if !strings.Contains(rec.Body.String(), "<Response></Response>") {
		t.Fatalf("expected empty TwiML response, got %q", rec.Body.String())
	}
}

func TestInboundDropsOwnMessages(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWebhookHandler(conv, "+10000000000", logger.Discard())

	postForm(t, h, url.Values{
		"From": {"whatsapp:+10000000000"},
		"Body": {"menu"},
	})

	if len(conv.events) != 0 {
		t.Fatalf("self messages must be dropped, got %+v", conv.events)
	}
}

func TestInboundDropsEmptyBody(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWebhookHandler(conv, "+10000000000", logger.Discard())

	// Media without caption: NumMedia is set but Body is blank.
	postForm(t, h, url.Values{
		"From":      {"whatsapp:+5215551234567"},
		"Body":      {"   "},
		"NumMedia":  {"1"},
		"MediaUrl0": {"https://example.test/img.jpg"},
	})

	if len(conv.events) != 0 {
		t.Fatalf("events without text must be dropped, got %+v", conv.events)
	}
}

func TestInboundMediaCaptionCounts(t *testing.T) {
	conv := &fakeConversation{}
	h := NewWebhookHandler(conv, "+10000000000", logger.Discard())

	postForm(t, h, url.Values{
		"From":      {"whatsapp:+5215551234567"},
		"Body":      {"1"},
		"NumMedia":  {"1"},
		"MediaUrl0": {"https://example.test/img.jpg"},
	})

	if len(conv.events) != 1 || conv.events[0].Text != "1" {
		t.Fatalf("caption text must be dispatched, got %+v", conv.events)
	}
}
