package main

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"warung/audio"
	"warung/chat"
	"warung/log"
	"warung/voice"
)

// captureWindow is how long one push-to-record capture runs unless the
// user stops it early.
const captureWindow = 4 * time.Second

const tickInterval = 100 * time.Millisecond

const (
	chatErrorText    = "⚠️ Error contacting server."
	voiceErrorText   = "🎤 Voice error."
	invalidReplyText = "⚠️ Server returned invalid response."
	noTranscriptText = "[Voice not recognized]"
	noReplyText      = "[No response]"
)

// Controller runs the conversation: it owns the transcript, serializes
// submissions, and turns backend replies into transcript messages. One
// request is in flight at a time; Submit and Capture while busy are
// dropped, not queued.
type Controller struct {
	chat       *chat.Client
	recognizer voice.Recognizer
	capture    audio.CaptureDevice
	transcript *chat.Transcript
	sink       EventSink
	inFlight   atomic.Bool
}

func NewController(client *chat.Client, recognizer voice.Recognizer, capture audio.CaptureDevice, sink EventSink) *Controller {
	return &Controller{
		chat:       client,
		recognizer: recognizer,
		capture:    capture,
		transcript: chat.NewTranscript(),
		sink:       sink,
	}
}

func (c *Controller) Transcript() *chat.Transcript {
	return c.transcript
}

// SetCapture swaps the microphone after a device switch. Callers only
// swap between captures.
func (c *Controller) SetCapture(dev audio.CaptureDevice) {
	c.capture = dev
}

func (c *Controller) append(msg chat.Message) {
	c.transcript.Append(msg)
	c.sink.Message(msg)
	if text, ok := msg.Content.(chat.PlainText); ok {
		log.MessageText(string(msg.Role), text.Text)
	}
}

func (c *Controller) appendBotText(text string) {
	c.append(chat.Message{Role: chat.RoleBot, Content: chat.PlainText{Text: text}})
}

// appendReply normalizes one backend reply into transcript messages.
func (c *Controller) appendReply(reply any) {
	for _, content := range chat.Normalize(reply) {
		c.append(chat.Message{Role: chat.RoleBot, Content: content})
	}
}

// Submit sends one typed message. Empty input is a no-op; input while
// a request is in flight is dropped.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer c.inFlight.Store(false)

	c.append(chat.Message{Role: chat.RoleUser, Content: chat.PlainText{Text: text}})

	c.sink.Busy(true)
	defer c.sink.Busy(false)

	reply, metrics, err := c.chat.Send(ctx, text)
	if err != nil {
		log.Errorf("chat request error: %v", err)
		c.appendBotText(chatErrorText)
		return err
	}

	log.ChatMetrics(requestMetrics(metrics), metrics.ConnReused, metrics.TLSProtocol)
	c.appendReply(reply)
	return nil
}

// Capture records one fixed window from the microphone, uploads it,
// and appends both the recognized transcription and the reply. The
// stop channel ends the window early.
func (c *Controller) Capture(ctx context.Context, stop <-chan struct{}) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer c.inFlight.Store(false)

	defer c.sink.Voice(VoiceIdle)
	c.sink.Voice(VoiceRecording)

	sess, err := c.recognizer.NewSession(ctx)
	if err != nil {
		log.Errorf("voice session error: %v", err)
		c.appendBotText(voiceErrorText)
		return err
	}

	if err := c.record(sess, stop); err != nil {
		log.Errorf("voice capture error: %v", err)
		c.appendBotText(voiceErrorText)
		return err
	}

	c.sink.Voice(VoiceSending)
	c.sink.Busy(true)
	defer c.sink.Busy(false)

	result, err := sess.Close()
	if err != nil {
		log.Errorf("voice upload error: %v", err)
		if errors.Is(err, voice.ErrNotJSON) {
			c.appendBotText(invalidReplyText)
		} else {
			c.appendBotText(voiceErrorText)
		}
		return err
	}

	if result.Metrics != nil {
		log.VoiceMetrics(result.AudioSeconds, result.WavKB, requestMetrics(result.Metrics), result.Metrics.ConnReused)
	}

	transcription := strings.TrimSpace(result.Transcription)
	if transcription == "" {
		transcription = noTranscriptText
	}
	c.append(chat.Message{Role: chat.RoleUser, Content: chat.PlainText{Text: transcription}})

	if result.Reply == nil {
		c.appendBotText(noReplyText)
		return nil
	}
	c.appendReply(result.Reply)
	return nil
}

// record feeds the capture device into the session for one window.
func (c *Controller) record(sess voice.Session, stop <-chan struct{}) error {
	var peakLevel atomic.Uint64
	done := make(chan struct{})

	c.capture.SetCallback(func(data []byte, frameCount uint32) {
		select {
		case <-done:
			return
		default:
		}
		if len(data) == 0 {
			return
		}
		pcm := make([]byte, len(data))
		copy(pcm, data)
		sess.Feed(pcm)

		rms := rmsLevel(data)
		c.sink.AudioLevel(rms)
		for {
			prev := peakLevel.Load()
			if math.Float64frombits(prev) >= rms || peakLevel.CompareAndSwap(prev, math.Float64bits(rms)) {
				break
			}
		}
	})
	defer c.capture.ClearCallback()

	if err := c.capture.Start(); err != nil {
		return err
	}
	defer c.capture.Stop()

	start := time.Now()
	deadline := time.NewTimer(captureWindow)
	defer deadline.Stop()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	warned := false
	for {
		select {
		case <-stop:
			log.Info("recording_stop")
			close(done)
			return nil
		case <-deadline.C:
			close(done)
			return nil
		case <-ticker.C:
			elapsed := time.Since(start).Seconds()
			c.sink.RecordingTick(elapsed)
			if !warned && elapsed > 1.0 && math.Float64frombits(peakLevel.Load()) < 0.02 {
				warned = true
				log.Info("no_voice_warning")
				c.sink.NoVoiceWarning()
			}
		}
	}
}

func rmsLevel(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}

func requestMetrics(m *chat.NetworkMetrics) log.RequestMetrics {
	return log.RequestMetrics{
		DNSMs:   float64(m.DNS) / float64(time.Millisecond),
		TLSMs:   float64(m.TLS) / float64(time.Millisecond),
		TTFBMs:  float64(m.TTFB) / float64(time.Millisecond),
		TotalMs: float64(m.Total) / float64(time.Millisecond),
	}
}
