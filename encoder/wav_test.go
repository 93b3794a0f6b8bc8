package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWavEncoderHeader(t *testing.T) {
	enc, err := NewWav()
	if err != nil {
		t.Fatalf("NewWav: %v", err)
	}

	samples := make([]int16, BlockSize)
	for i := range samples {
		samples[i] = int16(i % 256)
	}
	if err := enc.EncodeBlock(samples); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := enc.Bytes()
	if len(data) != HeaderSize+BlockSize*2 {
		t.Fatalf("len = %d, want %d", len(data), HeaderSize+BlockSize*2)
	}

	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Errorf("bad RIFF/WAVE magic: %q %q", data[0:4], data[8:12])
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != BitsPerSample {
		t.Errorf("bits per sample = %d, want %d", got, BitsPerSample)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != BlockSize*2 {
		t.Errorf("data chunk length = %d, want %d", got, BlockSize*2)
	}
}

func TestWavEncoderRoundTrip(t *testing.T) {
	enc, _ := NewWav()
	samples := []int16{0, 1, -1, 32767, -32768}
	enc.EncodeBlock(samples)
	enc.Close()

	data := enc.Bytes()[HeaderSize:]
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(data[i*2:]))
		if got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}
}

func TestWavEncoderEmpty(t *testing.T) {
	enc, _ := NewWav()
	enc.Close()

	data := enc.Bytes()
	if len(data) != HeaderSize {
		t.Fatalf("len = %d, want header only (%d)", len(data), HeaderSize)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 0 {
		t.Errorf("data chunk length = %d, want 0", got)
	}
}

func TestWavEncoderRejectsWritesAfterClose(t *testing.T) {
	enc, _ := NewWav()
	enc.Close()
	if err := enc.EncodeBlock([]int16{1}); err == nil {
		t.Error("expected error encoding after Close")
	}
}
