package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"warung/audio"
	"warung/chat"
	"warung/doctor"
	"warung/encoder"
	"warung/log"
	"warung/shutdown"
	"warung/voice"
)

var version = "dev"

func main() {
	run()
}

const defaultServer = "http://localhost:8000"

var (
	submitChan       = make(chan string, 1)
	recordChan       = make(chan struct{}, 1)
	deviceSelectChan = make(chan struct{}, 1)

	captureStopMu   sync.Mutex
	captureStopChan chan struct{}
)

func newCaptureStop() <-chan struct{} {
	captureStopMu.Lock()
	captureStopChan = make(chan struct{})
	ch := captureStopChan
	captureStopMu.Unlock()
	return ch
}

func fireCaptureStop() {
	captureStopMu.Lock()
	if captureStopChan != nil {
		select {
		case captureStopChan <- struct{}{}:
		default:
		}
	}
	captureStopMu.Unlock()
}

var shutdownOnce sync.Once
var activeController *Controller

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if activeController != nil {
			if n := activeController.Transcript().Len(); n > 0 {
				log.SessionEnd(n)
			}
		}
		log.Close()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func run() {
	serverFlag := flag.String("server", "", "Backend server URL (default: WARUNG_SERVER env or "+defaultServer+")")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	flag.Parse()

	serverURL := *serverFlag
	if serverURL == "" {
		serverURL = os.Getenv("WARUNG_SERVER")
	}
	if serverURL == "" {
		serverURL = defaultServer
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *versionFlag {
		fmt.Printf("warung %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(serverURL))
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: warung -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(serverURL, args[0])
		return
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(serverURL)
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}
	captureDevice, err := ctx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Printf("Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer captureDevice.Close()

	chatClient := chat.NewClient(serverURL)
	go chatClient.Warm()

	ctrl := NewController(chatClient, voice.NewServer(serverURL), captureDevice, tuiSink{})
	activeController = ctrl

	tuiMu.Lock()
	tuiProgram = NewTUIProgram()
	tuiMu.Unlock()

	go func() {
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
			os.Exit(1)
		}
		gracefulShutdown()
	}()

	<-tuiReady

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	// preferredDevice remembers the user's choice so we can auto-reconnect
	preferredDevice := ""
	if selectedDevice != nil {
		preferredDevice = selectedDevice.Name
	}

	// Poll for device changes (hotplug)
	go func() {
		var last []string
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			devices, err := ctx.Devices()
			if err != nil {
				continue
			}
			names := make([]string, len(devices))
			for i := range devices {
				names[i] = devices[i].Name
			}
			if slices.Equal(last, names) {
				continue
			}
			last = names
			selName := ""
			if selectedDevice != nil {
				selName = selectedDevice.Name
			}
			if selName != "" && !slices.Contains(names, selName) {
				// Selected device disappeared -- fall back to default
				log.Info("device_disconnected: " + selName)
				applyDeviceSwitch(ctx, captureConfig, &captureDevice, &selectedDevice, ctrl, nil)
			} else if selName == "" && preferredDevice != "" && slices.Contains(names, preferredDevice) {
				// Preferred device reappeared -- auto-reconnect
				log.Info("device_reconnected: " + preferredDevice)
				switchDeviceByName(ctx, captureConfig, &captureDevice, &selectedDevice, ctrl, preferredDevice)
			}
		}
	}()

	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	for {
		select {
		case text := <-submitChan:
			ctrl.Submit(context.Background(), text)

		case <-recordChan:
			log.Info("recording_device: " + captureDevice.DeviceName())
			ctrl.Capture(context.Background(), newCaptureStop())

		case <-deviceSelectChan:
			handleDeviceSwitch(ctx, captureConfig, &captureDevice, &selectedDevice, ctrl)
			if selectedDevice != nil {
				preferredDevice = selectedDevice.Name
			}
		}
	}
}

func handleDeviceSwitch(ctx audio.Context, captureConfig audio.CaptureConfig, captureDevice *audio.CaptureDevice, selectedDevice **audio.DeviceInfo, ctrl *Controller) {
	if tuiProgram != nil {
		tuiProgram.ReleaseTerminal()
	}
	newDevice, err := audio.SelectDevice(ctx)
	if tuiProgram != nil {
		tuiProgram.RestoreTerminal()
	}

	if err != nil {
		log.Warnf("device selection failed: %v", err)
		return
	}
	if newDevice != nil {
		applyDeviceSwitch(ctx, captureConfig, captureDevice, selectedDevice, ctrl, newDevice)
	}
}

func switchDeviceByName(ctx audio.Context, captureConfig audio.CaptureConfig, captureDevice *audio.CaptureDevice, selectedDevice **audio.DeviceInfo, ctrl *Controller, name string) {
	devices, err := ctx.Devices()
	if err != nil {
		log.Warnf("device enumeration failed: %v", err)
		return
	}
	for i := range devices {
		if devices[i].Name == name {
			applyDeviceSwitch(ctx, captureConfig, captureDevice, selectedDevice, ctrl, &devices[i])
			return
		}
	}
	log.Warnf("device not found: %s", name)
}

func applyDeviceSwitch(ctx audio.Context, captureConfig audio.CaptureConfig, captureDevice *audio.CaptureDevice, selectedDevice **audio.DeviceInfo, ctrl *Controller, newDevice *audio.DeviceInfo) {
	name := "system default"
	if newDevice != nil {
		name = newDevice.Name
	}
	log.Info("device_switch: " + name)
	(*captureDevice).Close()
	newCapture, err := ctx.NewCapture(newDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device reinit error: %v", err)
		return
	}
	*captureDevice = newCapture
	*selectedDevice = newDevice
	ctrl.SetCapture(newCapture)
	tuiSend(DeviceLineMsg{Text: deviceLineText(newDevice)})
}
