package bridge

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/ordervoice/voice-bridge/internal/observability"
	"github.com/ordervoice/voice-bridge/internal/realtime"
	"github.com/ordervoice/voice-bridge/internal/stt"
	"github.com/ordervoice/voice-bridge/internal/telephony"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Twilio's media gateway does not send a browser Origin header.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Handler upgrades the Twilio media stream websocket and runs one call
// session per connection. The outbound AI leg is dialed concurrently;
// inbound frames that arrive before it is ready are dropped.
func Handler(cfg *config.Config, transcriber stt.Transcriber, finalizer Finalizer) http.HandlerFunc {
	logger := observability.GetLogger()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade media stream connection")
			return
		}

		sess := NewSession(cfg, telephony.NewStream(conn), transcriber, finalizer)

		go dialOutbound(cfg, sess)

		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					sess.DeliverInboundClosed(err)
					return
				}
				sess.HandleInboundFrame(data)
			}
		}()

		sess.Run(r.Context())
	}
}

// dialOutbound connects the conversational-AI leg and pumps its events
// into the session until either side goes away.
func dialOutbound(cfg *config.Config, sess *Session) {
	rt, err := realtime.Dial(context.Background(), cfg)
	if err != nil {
		sess.DeliverOutboundClosed(err)
		return
	}

	if !sess.DeliverOutboundReady(rt) {
		// Session ended before the dial finished.
		_ = rt.Close()
		return
	}

	for ev := range rt.Events() {
		sess.DeliverOutboundEvent(ev)
	}
	sess.DeliverOutboundClosed(nil)
}
