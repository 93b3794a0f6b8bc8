package voice

import (
	"encoding/binary"
	"sync"
	"time"

	"warung/encoder"
)

type uploadFunc func(wav []byte) (*Result, error)

// captureSession buffers PCM into fixed blocks and encodes them on a
// separate goroutine while the recording is still running, so Close
// only has to flush the tail before uploading.
type captureSession struct {
	upload     uploadFunc
	encoder    encoder.Encoder
	blockChan  chan []int16
	encodeDone chan struct{}
	sampleBuf  []int16
	bufMu      sync.Mutex
}

func newCaptureSession(upload uploadFunc) (*captureSession, error) {
	enc, err := encoder.NewWav()
	if err != nil {
		return nil, err
	}

	cs := &captureSession{
		upload:     upload,
		encoder:    enc,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
	}

	go func() {
		defer close(cs.encodeDone)
		for block := range cs.blockChan {
			start := time.Now()
			cs.encoder.EncodeBlock(block)
			cs.encoder.AddEncodeTime(time.Since(start))
		}
	}()

	return cs, nil
}

func (cs *captureSession) Feed(pcm []byte) {
	cs.bufMu.Lock()
	for i := 0; i+1 < len(pcm); i += 2 {
		cs.sampleBuf = append(cs.sampleBuf, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	var blocks [][]int16
	for len(cs.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, cs.sampleBuf[:encoder.BlockSize])
		cs.sampleBuf = cs.sampleBuf[encoder.BlockSize:]
		blocks = append(blocks, block)
	}
	cs.bufMu.Unlock()

	for _, block := range blocks {
		cs.blockChan <- block
	}
}

func (cs *captureSession) Close() (*Result, error) {
	// Flush remaining samples
	cs.bufMu.Lock()
	if len(cs.sampleBuf) > 0 {
		partial := make([]int16, len(cs.sampleBuf))
		copy(partial, cs.sampleBuf)
		cs.blockChan <- partial
		cs.sampleBuf = nil
	}
	cs.bufMu.Unlock()

	close(cs.blockChan)
	<-cs.encodeDone

	if err := cs.encoder.Close(); err != nil {
		return nil, err
	}

	wav := cs.encoder.Bytes()
	result, err := cs.upload(wav)
	if err != nil {
		return nil, err
	}

	result.AudioSeconds = float64(cs.encoder.TotalFrames()) / float64(encoder.SampleRate)
	result.WavKB = float64(len(wav)) / 1024
	return result, nil
}
