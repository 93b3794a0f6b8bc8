package main

import "warung/chat"

// VoiceState tracks where a capture round trip is: idle, the fixed
// recording window, or the upload in flight.
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoiceRecording
	VoiceSending
)

// EventSink abstracts the display layer so the Bubble Tea TUI and the
// headless test driver receive the same conversation events.
type EventSink interface {
	Message(msg chat.Message)
	Busy(on bool)
	Voice(state VoiceState)
	RecordingTick(duration float64)
	AudioLevel(level float64)
	NoVoiceWarning()
}
