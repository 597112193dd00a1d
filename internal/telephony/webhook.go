package telephony

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/ordervoice/voice-bridge/internal/observability"
)

// CallerParameter is the custom stream parameter carrying the caller's number
// into the media stream session, so no call state lives outside the session.
const CallerParameter = "caller_number"

// IncomingCallHandler answers the Twilio voice webhook with TwiML that
// connects the call's media to this service's websocket endpoint.
func IncomingCallHandler(cfg *config.Config) http.HandlerFunc {
	logger := observability.GetLogger()

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			logger.Warn().Err(err).Msg("Failed to parse incoming-call webhook form")
		}
		caller := r.FormValue("From")

		host := cfg.PublicHost
		if host == "" {
			host = r.Host
		}
		streamURL := fmt.Sprintf("wss://%s/streams/media", host)

		logger.Info().
			Str("caller", caller).
			Str("stream_url", streamURL).
			Msg("Incoming call")

		twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Pause length="1"/>
    <Connect>
        <Stream url="%s">
            <Parameter name="%s" value="%s"/>
        </Stream>
    </Connect>
</Response>`, streamURL, CallerParameter, xmlEscape(caller))

		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, twiml)
	}
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
