package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"warung/audio"
	"warung/chat"
	"warung/encoder"
	"warung/log"
	"warung/voice"
)

// stdoutSink prints conversation events as plain lines so scripted
// runs can assert on them.
type stdoutSink struct{}

func (stdoutSink) Message(msg chat.Message) {
	switch content := msg.Content.(type) {
	case chat.PlainText:
		fmt.Printf("%s: %s\n", msg.Role, content.Text)
	case chat.OrderSummary:
		fmt.Printf("%s: order_summary %d items", msg.Role, len(content.Orders))
		if content.DeliveryTime != "" {
			fmt.Printf(" delivery=%s", content.DeliveryTime)
		}
		fmt.Println()
		for _, line := range content.Orders {
			fmt.Printf("  - %s | %s\n", line.Title, line.Subtitle)
		}
	case chat.RawFallback:
		dump, _ := json.Marshal(content.Value)
		fmt.Printf("%s: raw %s\n", msg.Role, dump)
	}
}

func (stdoutSink) Busy(on bool) {
	fmt.Printf("busy: %t\n", on)
}

func (stdoutSink) Voice(state VoiceState) {
	names := map[VoiceState]string{VoiceIdle: "idle", VoiceRecording: "recording", VoiceSending: "sending"}
	fmt.Printf("voice: %s\n", names[state])
}

func (stdoutSink) RecordingTick(duration float64) {}
func (stdoutSink) AudioLevel(level float64)       {}

func (stdoutSink) NoVoiceWarning() {
	fmt.Println("warning: no voice detected")
}

// runTestMode drives the controller from stdin commands against a WAV
// file replayed as the microphone:
//
//	SEND <text>   submit a typed message
//	RECORD        run one capture window
//	SLEEP <ms>    pause the script
//	QUIT          exit
func runTestMode(serverURL, wavPath string) {
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	log.SessionStart(serverURL)

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate, Channels: encoder.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	ctrl := NewController(chat.NewClient(serverURL), voice.NewServer(serverURL), capture, stdoutSink{})
	activeController = ctrl

	fakeCapture := capture.(*audio.FakeCapture)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "RECORD":
			// Stop the window once the replayed audio runs out.
			stop := make(chan struct{})
			go func() {
				<-fakeCapture.AudioDone()
				close(stop)
			}()
			ctrl.Capture(context.Background(), stop)

		case cmd == "QUIT":
			log.SessionEnd(ctrl.Transcript().Len())
			return

		case strings.HasPrefix(cmd, "SEND "):
			ctrl.Submit(context.Background(), cmd[5:])

		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		}
	}
}
