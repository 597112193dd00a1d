package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/ordervoice/voice-bridge/internal/observability"
	"github.com/rs/zerolog"
)

// Client is the outbound conversational-AI leg: a websocket connection to
// the realtime endpoint. Reads are pumped onto Events(); writes are
// serialized behind a mutex.
type Client struct {
	conn   *websocket.Conn
	voice  string
	events chan Event
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Dial connects and authenticates to the realtime endpoint and starts the read pump
func Dial(ctx context.Context, cfg *config.Config) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.OpenAIAPIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.OpenAIRealtimeURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime dial failed: %w", err)
	}

	c := &Client{
		conn:   conn,
		voice:  cfg.OpenAIVoice,
		events: make(chan Event, 64),
		logger: observability.GetLogger().With().Str("component", "realtime").Logger(),
	}
	go c.readPump()
	return c, nil
}

// Initialize sends the fixed session parameters followed by the greeting
// instruction and a response request, so the assistant speaks first.
func (c *Client) Initialize(instructions, greeting string) error {
	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			TurnDetection:     turnDetection{Type: "server_vad"},
			InputAudioFormat:  "g711_ulaw",
			OutputAudioFormat: "g711_ulaw",
			Voice:             c.voice,
			Instructions:      instructions,
			Modalities:        []string{"text", "audio"},
			Temperature:       1,
		},
	}
	if err := c.send(update); err != nil {
		return fmt.Errorf("session.update failed: %w", err)
	}

	item := conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "user",
			Content: []itemContent{{Type: "input_text", Text: greeting}},
		},
	}
	if err := c.send(item); err != nil {
		return fmt.Errorf("greeting item failed: %w", err)
	}
	if err := c.send(responseCreate{Type: "response.create"}); err != nil {
		return fmt.Errorf("response.create failed: %w", err)
	}
	return nil
}

// AppendAudio forwards one base64 caller audio payload to the input buffer
func (c *Client) AppendAudio(payload string) error {
	return c.send(inputAudioBufferAppend{
		Type:  "input_audio_buffer.append",
		Audio: payload,
	})
}

// TruncateItem tells the endpoint to discard assistant audio past the
// elapsed playback position of the given response item.
func (c *Client) TruncateItem(itemID string, audioEndMs int64) error {
	return c.send(conversationItemTruncate{
		Type:       "conversation.item.truncate",
		ItemID:     itemID,
		AudioEndMs: audioEndMs,
	})
}

// Events returns the stream of server events. The channel is closed when
// the connection drops or Close is called.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Close tears down the websocket
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("realtime connection is closed")
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) readPump() {
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Msg("Realtime read error")
			}
			return
		}

		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Error().Err(err).Msg("Malformed realtime event")
			continue
		}

		switch ev.Type {
		case EventAudioDelta, EventAudioDone, EventSpeechStarted:
			c.events <- Event{Type: ev.Type, ItemID: ev.ItemID, Delta: ev.Delta}
		default:
			// Transcript, rate-limit and lifecycle events are not used by the bridge.
			c.logger.Debug().Str("type", ev.Type).Msg("Ignoring realtime event")
		}
	}
}
