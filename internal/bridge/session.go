package bridge

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ordervoice/voice-bridge/internal/config"
	"github.com/ordervoice/voice-bridge/internal/observability"
	"github.com/ordervoice/voice-bridge/internal/realtime"
	"github.com/ordervoice/voice-bridge/internal/stt"
	"github.com/ordervoice/voice-bridge/internal/telephony"
	"github.com/rs/zerolog"
)

// State is the lifecycle phase of a call session
type State int

const (
	StateAwaitingOutboundReady State = iota // inbound frames dropped until the AI leg is up
	StateActive                             // bidirectional relay
	StateClosing                            // no new frames; in-flight transcriptions drain
	StateClosed                             // terminal; extraction has run
)

func (s State) String() string {
	switch s {
	case StateAwaitingOutboundReady:
		return "awaiting_outbound_ready"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// markToken is the acknowledgment token queued per forwarded audio fragment.
// Only queue emptiness matters, not the token value.
const markToken = "responsePart"

// transcribeTimeout bounds a single turn transcription call.
const transcribeTimeout = 30 * time.Second

// finalizeTimeout bounds the whole post-call extraction step.
const finalizeTimeout = 60 * time.Second

// TelephonyLeg is the inbound call's write side
type TelephonyLeg interface {
	SendMedia(streamSid, payload string) error
	SendMark(streamSid, name string) error
	SendClear(streamSid string) error
	Close() error
}

// RealtimeLeg is the outbound conversational-AI connection's write side
type RealtimeLeg interface {
	Initialize(instructions, greeting string) error
	AppendAudio(payload string) error
	TruncateItem(itemID string, audioEndMs int64) error
	Close() error
}

// Finalizer runs the post-call extraction step exactly once per call
type Finalizer interface {
	Finalize(ctx context.Context, callerID, transcript string)
}

// Session bridges one phone call to the conversational-AI endpoint. All
// state mutations happen on the single Run goroutine; external callbacks
// (inbound frames, outbound events, timers, transcription completions)
// deliver events into the session's queue instead of touching fields.
type Session struct {
	id        string
	callerID  string
	streamSid string

	state State

	// playback tracking, all in the inbound stream's millisecond clock
	latestMediaTS     int64
	responseStartTS   int64
	responseStarted   bool
	lastAssistantItem string
	markQueue         []string

	callerBuf    *TurnBuffer
	assistantBuf *TurnBuffer
	transcript   *Transcript

	downstream  TelephonyLeg
	upstream    RealtimeLeg
	transcriber stt.Transcriber
	finalizer   Finalizer

	events chan event
	done   chan struct{}

	inflight       sync.WaitGroup
	goodbyeTimer   *time.Timer
	closeScheduled bool

	goodbyeGrace time.Duration
	drainTimeout time.Duration
	location     *time.Location

	logger  zerolog.Logger
	metrics *observability.CallMetrics
}

// Session events. Everything external becomes one of these.
type event interface{ isEvent() }

type evInboundStart struct {
	streamSid string
	caller    string
}
type evInboundMedia struct {
	payload string
	ts      int64
	tsValid bool
}
type evInboundMark struct{}
type evInboundStop struct{}
type evInboundClosed struct{ err error }
type evOutboundReady struct{ leg RealtimeLeg }
type evOutboundAudioDelta struct {
	itemID  string
	payload string
}
type evOutboundAudioDone struct{}
type evOutboundSpeechStarted struct{}
type evOutboundClosed struct{ err error }
type evTurnTranscribed struct {
	speaker string
	text    string
}
type evGoodbyeElapsed struct{}

func (evInboundStart) isEvent()          {}
func (evInboundMedia) isEvent()          {}
func (evInboundMark) isEvent()           {}
func (evInboundStop) isEvent()           {}
func (evInboundClosed) isEvent()         {}
func (evOutboundReady) isEvent()         {}
func (evOutboundAudioDelta) isEvent()    {}
func (evOutboundAudioDone) isEvent()     {}
func (evOutboundSpeechStarted) isEvent() {}
func (evOutboundClosed) isEvent()        {}
func (evTurnTranscribed) isEvent()       {}
func (evGoodbyeElapsed) isEvent()        {}

// NewSession creates a session for one upgraded telephony connection.
// The outbound leg attaches later via DeliverOutboundReady.
func NewSession(cfg *config.Config, downstream TelephonyLeg, transcriber stt.Transcriber, finalizer Finalizer) *Session {
	id := "call-" + uuid.New().String()
	logger := observability.WithCorrelationID(observability.NewCorrelationID()).
		With().
		Str("call_id", id).
		Logger()

	metrics := observability.NewCallMetrics(id)
	metrics.RecordCallStart()

	// Validated at config load
	loc, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		loc = time.UTC
	}

	return &Session{
		id:           id,
		state:        StateAwaitingOutboundReady,
		callerBuf:    NewTurnBuffer(),
		assistantBuf: NewTurnBuffer(),
		transcript:   NewTranscript(),
		downstream:   downstream,
		transcriber:  transcriber,
		finalizer:    finalizer,
		events:       make(chan event, 256),
		done:         make(chan struct{}),
		goodbyeGrace: cfg.GoodbyeGrace,
		drainTimeout: cfg.DrainTimeout,
		location:     loc,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run drives the session until the call ends, then drains in-flight
// transcriptions and fires the extraction step. It must be called once.
func (s *Session) Run(ctx context.Context) {
	defer s.metrics.RecordCallEnd()
	s.logger.Info().Msg("Call session started")

	for s.state != StateClosing {
		select {
		case <-ctx.Done():
			s.beginClose("context cancelled")
		case ev := <-s.events:
			s.handle(ev)
		}
	}

	if s.goodbyeTimer != nil {
		s.goodbyeTimer.Stop()
	}
	if s.upstream != nil {
		_ = s.upstream.Close()
	}
	_ = s.downstream.Close()

	s.drainTranscriptions()
	close(s.done)
	s.sweepEvents()
	s.state = StateClosed

	s.logger.Info().
		Str("caller", s.callerID).
		Int("transcript_turns", s.transcript.Len()).
		Msg("Call session closed")

	s.finalize()
}

// Done is closed once the session has fully shut down
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current lifecycle phase. Only meaningful from the Run
// goroutine or after Done.
func (s *Session) State() State {
	return s.state
}

// Transcript exposes the accumulated call transcript
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// HandleInboundFrame parses one raw telephony frame and queues it.
// Malformed frames are logged and discarded; the connection stays open.
func (s *Session) HandleInboundFrame(data []byte) {
	msg, err := telephony.Parse(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Discarding malformed inbound frame")
		return
	}

	switch msg.Event {
	case telephony.EventConnected:
		// Handshake banner; nothing to track.

	case telephony.EventStart:
		if msg.Start == nil {
			s.logger.Warn().Msg("Start frame missing payload")
			return
		}
		s.deliver(evInboundStart{
			streamSid: msg.Start.StreamSid,
			caller:    msg.Start.CustomParameters[telephony.CallerParameter],
		})

	case telephony.EventMedia:
		if msg.Media == nil {
			return
		}
		ts, tsErr := msg.Media.TimestampMs()
		if tsErr != nil {
			s.logger.Warn().Err(tsErr).Msg("Unparseable media timestamp")
		}
		s.deliver(evInboundMedia{payload: msg.Media.Payload, ts: ts, tsValid: tsErr == nil})

	case telephony.EventMark:
		s.deliver(evInboundMark{})

	case telephony.EventStop:
		s.deliver(evInboundStop{})

	default:
		s.logger.Debug().Str("event", msg.Event).Msg("Ignoring telephony event")
	}
}

// DeliverInboundClosed reports that the telephony websocket dropped
func (s *Session) DeliverInboundClosed(err error) {
	s.deliver(evInboundClosed{err: err})
}

// DeliverOutboundReady attaches the dialed conversational-AI leg. Returns
// false if the session already shut down, in which case the caller owns
// closing the leg.
func (s *Session) DeliverOutboundReady(leg RealtimeLeg) bool {
	return s.deliver(evOutboundReady{leg: leg})
}

// DeliverOutboundEvent queues one server event from the AI leg
func (s *Session) DeliverOutboundEvent(ev realtime.Event) {
	switch ev.Type {
	case realtime.EventAudioDelta:
		s.deliver(evOutboundAudioDelta{itemID: ev.ItemID, payload: ev.Delta})
	case realtime.EventAudioDone:
		s.deliver(evOutboundAudioDone{})
	case realtime.EventSpeechStarted:
		s.deliver(evOutboundSpeechStarted{})
	}
}

// DeliverOutboundClosed reports that the AI leg dropped or failed to dial
func (s *Session) DeliverOutboundClosed(err error) {
	s.deliver(evOutboundClosed{err: err})
}

func (s *Session) deliver(ev event) bool {
	// Check done first: the events channel is buffered, so a plain select
	// could accept events into a session that already shut down.
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) handle(ev event) {
	switch ev := ev.(type) {
	case evInboundStart:
		s.streamSid = ev.streamSid
		if ev.caller != "" {
			s.callerID = ev.caller
		}
		s.latestMediaTS = 0
		s.responseStarted = false
		s.responseStartTS = 0
		s.logger.Info().
			Str("stream_sid", ev.streamSid).
			Str("caller", s.callerID).
			Msg("Inbound stream started")

	case evInboundMedia:
		if ev.tsValid {
			s.latestMediaTS = ev.ts
		}
		if s.state != StateActive {
			// Telephony frame loss is acceptable before the AI leg is up;
			// silence beats unbounded buffering.
			s.metrics.RecordDroppedFrame()
			return
		}
		raw, err := base64.StdEncoding.DecodeString(ev.payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Discarding undecodable media payload")
			return
		}
		s.callerBuf.Append(raw)
		s.metrics.RecordAudioBytes("in", int64(len(raw)))
		if err := s.upstream.AppendAudio(ev.payload); err != nil {
			s.logger.Error().Err(err).Msg("Failed to forward caller audio")
		}

	case evInboundMark:
		if len(s.markQueue) > 0 {
			s.markQueue = s.markQueue[1:]
		}

	case evInboundStop:
		s.beginClose("inbound stop")

	case evInboundClosed:
		s.beginClose("inbound disconnect")

	case evOutboundReady:
		if s.state != StateAwaitingOutboundReady {
			_ = ev.leg.Close()
			return
		}
		s.upstream = ev.leg
		now := time.Now().In(s.location)
		if err := s.upstream.Initialize(SessionInstructions(now), GreetingInstruction); err != nil {
			s.logger.Error().Err(err).Msg("Outbound session init failed")
			s.beginClose("outbound init failed")
			return
		}
		s.state = StateActive
		s.logger.Info().Msg("Outbound leg ready, relay active")

	case evOutboundAudioDelta:
		if s.state != StateActive {
			return
		}
		s.handleAssistantAudio(ev)

	case evOutboundAudioDone:
		if s.state != StateActive {
			return
		}
		// Generation finished is the turn boundary for both sides.
		s.dispatchTurn(SpeakerAssistant, s.assistantBuf)
		s.dispatchTurn(SpeakerCaller, s.callerBuf)

	case evOutboundSpeechStarted:
		if s.state == StateActive {
			s.interrupt()
		}

	case evOutboundClosed:
		// No outbound leg means no assistant; no reconnect.
		s.beginClose("outbound disconnect")

	case evTurnTranscribed:
		s.applyTranscription(ev)

	case evGoodbyeElapsed:
		s.beginClose("goodbye grace elapsed")
	}
}

func (s *Session) handleAssistantAudio(ev evOutboundAudioDelta) {
	if raw, err := base64.StdEncoding.DecodeString(ev.payload); err == nil {
		s.assistantBuf.Append(raw)
		s.metrics.RecordAudioBytes("out", int64(len(raw)))
	} else {
		s.logger.Warn().Err(err).Msg("Assistant audio payload not base64, forwarding anyway")
	}

	if err := s.downstream.SendMedia(s.streamSid, ev.payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to forward assistant audio")
	}

	if !s.responseStarted {
		s.responseStarted = true
		s.responseStartTS = s.latestMediaTS
	}
	if ev.itemID != "" {
		s.lastAssistantItem = ev.itemID
	}

	if s.streamSid != "" {
		if err := s.downstream.SendMark(s.streamSid, markToken); err != nil {
			s.logger.Error().Err(err).Msg("Failed to send playback mark")
		} else {
			s.markQueue = append(s.markQueue, markToken)
		}
	}
}

// interrupt executes a barge-in: truncate the in-flight assistant response
// upstream and flush unplayed audio downstream. A no-op when nothing is
// known to be playing, so repeated speech-start signals are safe.
func (s *Session) interrupt() {
	if len(s.markQueue) == 0 || !s.responseStarted {
		return
	}

	elapsed := s.latestMediaTS - s.responseStartTS
	if s.lastAssistantItem != "" {
		if err := s.upstream.TruncateItem(s.lastAssistantItem, elapsed); err != nil {
			s.logger.Error().Err(err).Msg("Truncate instruction failed")
		}
	}
	if err := s.downstream.SendClear(s.streamSid); err != nil {
		s.logger.Error().Err(err).Msg("Clear instruction failed")
	}

	s.markQueue = s.markQueue[:0]
	s.lastAssistantItem = ""
	s.responseStarted = false
	s.responseStartTS = 0

	s.metrics.RecordInterruption()
	s.logger.Info().Int64("elapsed_ms", elapsed).Msg("Interrupted assistant playback")
}

// dispatchTurn snapshots one speaker's buffer and submits it for
// transcription without blocking the reactor. The result comes back as an
// event; failures are logged and the turn is dropped.
func (s *Session) dispatchTurn(speaker string, buf *TurnBuffer) {
	audio := buf.SnapshotAndClear()
	if len(audio) == 0 {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
		defer cancel()

		start := time.Now()
		text, err := s.transcriber.Transcribe(ctx, audio)
		s.metrics.RecordTranscription(speaker, time.Since(start), err == nil)
		if err != nil {
			s.logger.Error().Err(err).Str("speaker", speaker).Msg("Turn transcription failed")
			return
		}
		s.deliver(evTurnTranscribed{speaker: speaker, text: text})
	}()
}

func (s *Session) applyTranscription(ev evTurnTranscribed) {
	s.transcript.Append(ev.speaker, ev.text)
	s.logger.Info().
		Str("speaker", ev.speaker).
		Str("text", ev.text).
		Msg("Turn transcribed")

	if ev.speaker == SpeakerAssistant && !s.closeScheduled &&
		strings.Contains(strings.ToLower(ev.text), GoodbyeKeyword) {
		s.closeScheduled = true
		s.logger.Info().Dur("grace", s.goodbyeGrace).Msg("Goodbye detected, scheduling close")
		s.goodbyeTimer = time.AfterFunc(s.goodbyeGrace, func() {
			s.deliver(evGoodbyeElapsed{})
		})
	}
}

func (s *Session) beginClose(reason string) {
	if s.state == StateClosing {
		return
	}
	s.logger.Info().Str("reason", reason).Str("from_state", s.state.String()).Msg("Closing call")
	s.state = StateClosing
}

// drainTranscriptions lets in-flight transcription dispatches finish,
// bounded by the configured timeout, still applying their results so the
// final transcript keeps the last turns of the call.
func (s *Session) drainTranscriptions() {
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()

	timer := time.NewTimer(s.drainTimeout)
	defer timer.Stop()

	for {
		select {
		case ev := <-s.events:
			s.absorb(ev)
		case <-idle:
			s.sweepEvents()
			return
		case <-timer.C:
			s.logger.Warn().Msg("Transcription drain timed out")
			return
		}
	}
}

// sweepEvents empties whatever is queued without blocking. Late
// transcription results still belong in the transcript, and a late-dialed
// outbound leg must be closed here since nothing else owns it anymore.
func (s *Session) sweepEvents() {
	for {
		select {
		case ev := <-s.events:
			s.absorb(ev)
		default:
			return
		}
	}
}

func (s *Session) absorb(ev event) {
	switch ev := ev.(type) {
	case evTurnTranscribed:
		s.transcript.Append(ev.speaker, ev.text)
	case evOutboundReady:
		_ = ev.leg.Close()
	}
}

func (s *Session) finalize() {
	if s.finalizer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	s.finalizer.Finalize(ctx, s.callerID, s.transcript.String())
}
