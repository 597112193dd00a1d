package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ordervoice/voice-bridge/internal/config"
)

func TestIncomingCallHandler_UsesPublicHost(t *testing.T) {
	cfg := &config.Config{PublicHost: "example.ngrok-free.dev"}
	handler := IncomingCallHandler(cfg)

	form := url.Values{"From": {"+15551234567"}}
	req := httptest.NewRequest("POST", "/incoming-call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Expected Content-Type 'text/xml', got '%s'", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `url="wss://example.ngrok-free.dev/streams/media"`) {
		t.Errorf("Expected stream URL built from public host, got %s", body)
	}
	if !strings.Contains(body, `<Parameter name="caller_number" value="+15551234567"/>`) {
		t.Errorf("Expected caller parameter in TwiML, got %s", body)
	}
	if !strings.Contains(body, "<Pause length=\"1\"/>") {
		t.Errorf("Expected pause before connect, got %s", body)
	}
}

func TestIncomingCallHandler_FallsBackToRequestHost(t *testing.T) {
	cfg := &config.Config{}
	handler := IncomingCallHandler(cfg)

	req := httptest.NewRequest("POST", "/incoming-call", nil)
	req.Host = "bridge.example.com"
	rec := httptest.NewRecorder()

	handler(rec, req)

	if !strings.Contains(rec.Body.String(), `url="wss://bridge.example.com/streams/media"`) {
		t.Errorf("Expected stream URL from request host, got %s", rec.Body.String())
	}
}

func TestIncomingCallHandler_EscapesCaller(t *testing.T) {
	cfg := &config.Config{PublicHost: "example.com"}
	handler := IncomingCallHandler(cfg)

	form := url.Values{"From": {`+1555<&>"`}}
	req := httptest.NewRequest("POST", "/incoming-call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, `value="+1555<`) {
		t.Errorf("Expected caller value to be XML-escaped, got %s", body)
	}
	if !strings.Contains(body, "&lt;") {
		t.Errorf("Expected escaped angle bracket in TwiML, got %s", body)
	}
}
