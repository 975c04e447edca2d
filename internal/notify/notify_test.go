package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nifty-alerts/internal/config"
	"nifty-alerts/internal/models"
)

// fakeChannel records sends for fan-out tests.
type fakeChannel struct {
	name    string
	enabled bool
	fail    bool
	sent    []Notification
}

func (f *fakeChannel) Name() string    { return f.name }
func (f *fakeChannel) IsEnabled() bool { return f.enabled }
func (f *fakeChannel) Send(ctx context.Context, n Notification) error {
	if f.fail {
		return fmt.Errorf("channel error")
	}
	f.sent = append(f.sent, n)
	return nil
}

func TestMultiNotifierFanOut(t *testing.T) {
	mn := NewMultiNotifier(&config.NotificationConfig{Enabled: true})
	a := &fakeChannel{name: "a", enabled: true}
	b := &fakeChannel{name: "b", enabled: true}
	off := &fakeChannel{name: "off", enabled: false}
	mn.AddChannel(a)
	mn.AddChannel(b)
	mn.AddChannel(off)

	err := mn.Send(context.Background(), Notification{Type: NotificationInfo, Title: "t", Message: "m"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(a.sent) != 1 || len(b.sent) != 1 {
		t.Errorf("expected both enabled channels to receive, got %d/%d", len(a.sent), len(b.sent))
	}
	if len(off.sent) != 0 {
		t.Error("disabled channel must not receive")
	}
	if a.sent[0].Timestamp.IsZero() {
		t.Error("timestamp must be stamped on send")
	}
}

func TestMultiNotifierPartialFailureIsSuccess(t *testing.T) {
	mn := NewMultiNotifier(&config.NotificationConfig{Enabled: true})
	good := &fakeChannel{name: "good", enabled: true}
	bad := &fakeChannel{name: "bad", enabled: true, fail: true}
	mn.AddChannel(good)
	mn.AddChannel(bad)

	err := mn.Send(context.Background(), Notification{Type: NotificationInfo, Title: "t"})
	if err != nil {
		t.Errorf("delivery on at least one channel counts as success, got %v", err)
	}
	if len(good.sent) != 1 {
		t.Error("working channel must still receive")
	}
}

func TestMultiNotifierTotalFailure(t *testing.T) {
	mn := NewMultiNotifier(&config.NotificationConfig{Enabled: true})
	mn.AddChannel(&fakeChannel{name: "bad1", enabled: true, fail: true})
	mn.AddChannel(&fakeChannel{name: "bad2", enabled: true, fail: true})

	err := mn.Send(context.Background(), Notification{Type: NotificationInfo, Title: "t"})
	if err == nil {
		t.Error("delivery failing on every channel must surface an error")
	}
}

func TestMultiNotifierDisabledConfig(t *testing.T) {
	mn := NewMultiNotifier(&config.NotificationConfig{
		Enabled:  false,
		Telegram: config.TelegramConfig{Enabled: true, BotToken: "x", ChatID: "y"},
	})

	// Disabled notifications register no channels; sends are silent no-ops.
	if err := mn.Send(context.Background(), Notification{Type: NotificationInfo}); err != nil {
		t.Errorf("disabled notifier must not error, got %v", err)
	}
}

func TestZoneAlertMessageContents(t *testing.T) {
	mn := NewMultiNotifier(&config.NotificationConfig{Enabled: true})
	ch := &fakeChannel{name: "capture", enabled: true}
	mn.AddChannel(ch)

	zone := models.Zone{
		Type:         models.ZoneBullish,
		StartTime:    time.Date(2025, 8, 1, 10, 5, 0, 0, time.UTC),
		BaseLevel:    24412.50,
		ExtremeLevel: 24390.25,
	}

	if err := mn.SendZoneAlert(context.Background(), zone, models.Timeframe5Min, 24450); err != nil {
		t.Fatalf("SendZoneAlert failed: %v", err)
	}

	n := ch.sent[0]
	if n.Type != NotificationZone {
		t.Errorf("type = %s, want zone", n.Type)
	}
	if !strings.Contains(n.Title, "Bullish") || !strings.Contains(n.Title, "5m") {
		t.Errorf("title missing direction or timeframe: %s", n.Title)
	}
	if !strings.Contains(n.Message, "24390.25") || !strings.Contains(n.Message, "24412.50") {
		t.Errorf("message missing zone bounds: %s", n.Message)
	}
	if n.Data["zone_type"] != "bullish" {
		t.Errorf("data zone_type = %v", n.Data["zone_type"])
	}
}

func TestTelegramNotifierSend(t *testing.T) {
	var gotPath string
	var payload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	tn := NewTelegramNotifier(config.TelegramConfig{Enabled: true, BotToken: "bot123", ChatID: "chat456"})
	tn.client = server.Client()
	// Point the bot API at the test server by rewriting through a transport.
	tn.client.Transport = rewriteHost(server)

	err := tn.Send(context.Background(), Notification{
		Type:    NotificationZone,
		Title:   "Zone <detected>",
		Message: "base & extreme",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if !strings.Contains(gotPath, "bot123") {
		t.Errorf("request path missing bot token: %s", gotPath)
	}
	if payload["chat_id"] != "chat456" {
		t.Errorf("chat_id = %v", payload["chat_id"])
	}
	text, _ := payload["text"].(string)
	if !strings.Contains(text, "&lt;detected&gt;") || !strings.Contains(text, "&amp;") {
		t.Errorf("HTML special characters not escaped: %s", text)
	}
}

// rewriteHost redirects any outgoing request to the test server.
func rewriteHost(server *httptest.Server) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		u := *req.URL
		u.Scheme = "http"
		u.Host = strings.TrimPrefix(server.URL, "http://")
		req2 := req.Clone(req.Context())
		req2.URL = &u
		return http.DefaultTransport.RoundTrip(req2)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestWebhookNotifierSend(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	wn := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: server.URL})
	err := wn.Send(context.Background(), Notification{
		Type:    NotificationLevel,
		Title:   "Near PP",
		Message: "spot close to pivot",
		Data:    map[string]interface{}{"level": 24500.0},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if payload["type"] != "level" || payload["title"] != "Near PP" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestWebhookNotifierRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	wn := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: server.URL})
	if err := wn.Send(context.Background(), Notification{Type: NotificationInfo}); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestNotifierDisabledChannels(t *testing.T) {
	tn := NewTelegramNotifier(config.TelegramConfig{Enabled: true}) // missing token
	if tn.IsEnabled() {
		t.Error("telegram without credentials must be disabled")
	}
	wn := NewWebhookNotifier(config.WebhookConfig{Enabled: true}) // missing URL
	if wn.IsEnabled() {
		t.Error("webhook without URL must be disabled")
	}
}
