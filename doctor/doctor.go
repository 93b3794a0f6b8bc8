// Package doctor runs interactive diagnostics: microphone capture and
// backend reachability.
package doctor

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"warung/audio"
	"warung/encoder"
)

// Run executes the checks against serverURL and returns an exit code
// (0=all pass, 1=any fail).
func Run(serverURL string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("warung doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	allPass := true

	if !checkServer(serverURL) {
		allPass = false
	}
	if allPass && !checkMicrophone() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func checkServer(serverURL string) bool {
	fmt.Println()
	fmt.Println("[1/2] Backend server")
	fmt.Printf("Checking %s ...\n", serverURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, serverURL+"/chat", nil)
	if err != nil {
		fmt.Printf("  FAIL: bad server URL: %v\n", err)
		return false
	}
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("  FAIL: cannot reach server: %v\n", err)
		return false
	}
	resp.Body.Close()

	fmt.Printf("  PASS: reachable in %dms (HTTP %d)\n", time.Since(start).Milliseconds(), resp.StatusCode)
	return true
}

func checkMicrophone() bool {
	fmt.Println()
	fmt.Println("[2/2] Microphone")

	reader := bufio.NewReader(os.Stdin)

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) == 1 {
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	} else {
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Printf("  FAIL: invalid choice\n")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}

	if audio.IsBluetooth(device.Name) {
		fmt.Println("  NOTE: Bluetooth microphone, expect lower audio quality")
	}

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	stop := make(chan struct{})
	go func() {
		time.Sleep(3 * time.Second)
		close(stop)
	}()

	pcm, err := recordAudio(ctx, device, stop)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if len(pcm) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	seconds := float64(len(pcm)/2) / float64(encoder.SampleRate)
	peak := peakLevel(pcm)
	fmt.Printf("  Recorded %.1fs (%.1f KB), peak level %.3f\n", seconds, float64(len(pcm))/1024, peak)

	if peak < 0.02 {
		fmt.Println("  FAIL: no voice detected, check the microphone or input volume")
		return false
	}

	fmt.Println("  PASS: microphone captured voice")
	return true
}

func peakLevel(pcm []byte) float64 {
	peak := 0.0
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		level := math.Abs(float64(sample)) / 32768.0
		if level > peak {
			peak = level
		}
	}
	return peak
}

func recordAudio(ctx audio.Context, device *audio.DeviceInfo, stop <-chan struct{}) ([]byte, error) {
	var pcmBuf []byte
	var bufMu sync.Mutex
	var stopped bool

	config := audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}

	captureDevice, err := ctx.NewCapture(device, config)
	if err != nil {
		return nil, err
	}
	defer captureDevice.Close()

	captureDevice.SetCallback(func(data []byte, frameCount uint32) {
		bufMu.Lock()
		if !stopped {
			pcmBuf = append(pcmBuf, data...)
		}
		bufMu.Unlock()
	})
	defer captureDevice.ClearCallback()

	if err := captureDevice.Start(); err != nil {
		return nil, err
	}
	<-stop
	captureDevice.Stop()

	bufMu.Lock()
	stopped = true
	out := pcmBuf
	bufMu.Unlock()
	return out, nil
}
