package voice

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Fake satisfies Recognizer for tests: it records how many PCM bytes
// each session was fed and answers with canned results.
type Fake struct {
	Transcription string
	Reply         any
	Err           error

	sessions atomic.Int32
}

func NewFake(transcription string, reply any, err error) *Fake {
	return &Fake{Transcription: transcription, Reply: reply, Err: err}
}

func (f *Fake) Name() string { return "fake" }

// Sessions reports how many sessions were opened.
func (f *Fake) Sessions() int { return int(f.sessions.Load()) }

func (f *Fake) NewSession(_ context.Context) (Session, error) {
	f.sessions.Add(1)
	return &fakeSession{fake: f}, nil
}

type fakeSession struct {
	fake     *Fake
	fedBytes int
	closed   bool
}

func (s *fakeSession) Feed(pcm []byte) {
	s.fedBytes += len(pcm)
}

func (s *fakeSession) Close() (*Result, error) {
	if s.closed {
		return nil, fmt.Errorf("fake session closed twice")
	}
	s.closed = true
	if s.fake.Err != nil {
		return nil, s.fake.Err
	}
	return &Result{
		Transcription: s.fake.Transcription,
		Reply:         s.fake.Reply,
		AudioSeconds:  float64(s.fedBytes/2) / 16000,
	}, nil
}
