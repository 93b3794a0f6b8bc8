package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// HeaderSize is the fixed RIFF/WAVE header length for PCM audio.
const HeaderSize = 44

// WavEncoder assembles 16-bit mono PCM blocks into a single WAV
// payload. The header is reserved up front and patched on Close once
// the data length is known.
type WavEncoder struct {
	buf         bytes.Buffer
	totalFrames uint64
	encodeTime  time.Duration
	closed      bool
	mu          sync.Mutex
}

func NewWav() (*WavEncoder, error) {
	e := &WavEncoder{}
	e.buf.Write(make([]byte, HeaderSize))
	return e, nil
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("wav encoder already closed")
	}
	data := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	e.buf.Write(data)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	data := e.buf.Bytes()
	dataLen := uint32(len(data) - HeaderSize)

	copy(data[0:4], "RIFF")
	binary.LittleEndian.PutUint32(data[4:8], 36+dataLen)
	copy(data[8:12], "WAVE")

	copy(data[12:16], "fmt ")
	binary.LittleEndian.PutUint32(data[16:20], 16) // PCM fmt chunk length
	binary.LittleEndian.PutUint16(data[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(data[22:24], Channels)
	binary.LittleEndian.PutUint32(data[24:28], SampleRate)
	binary.LittleEndian.PutUint32(data[28:32], SampleRate*Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(data[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(data[34:36], BitsPerSample)

	copy(data[36:40], "data")
	binary.LittleEndian.PutUint32(data[40:44], dataLen)
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Bytes()
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *WavEncoder) AddEncodeTime(d time.Duration) {
	e.mu.Lock()
	e.encodeTime += d
	e.mu.Unlock()
}

func (e *WavEncoder) EncodeTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeTime
}
