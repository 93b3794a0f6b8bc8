package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"warung/chat"
	"warung/clipboard"
	"warung/render"
)

// TUI message types
type MessageMsg struct{ Message chat.Message }
type BusyMsg struct{ On bool }
type VoiceStateMsg struct{ State VoiceState }
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type NoVoiceWarningMsg struct{}
type DeviceLineMsg struct{ Text string }

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var (
	statusRecStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusSendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	statusWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBoldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	levelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	copiedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type chatModel struct {
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	messages []chat.Message
	rendered []string

	busy       bool
	voice      VoiceState
	recDur     float64
	audioLevel float64
	noVoice    bool
	copied     bool
	deviceLine string

	width, height int
	sized         bool
}

func NewTUIProgram() *tea.Program {
	ti := textinput.New()
	ti.Placeholder = "Type your order..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusSendStyle

	m := chatModel{input: ti, spin: sp}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// chromeHeight is the lines taken by status, input, and help rows.
const chromeHeight = 4

func (m *chatModel) resize(width, height int) {
	m.width = width
	m.height = height
	vh := height - chromeHeight
	if vh < 3 {
		vh = 3
	}
	if !m.sized {
		m.viewport = viewport.New(width, vh)
		m.sized = true
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		m.viewport.Width = width
		m.viewport.Height = vh
	}
	m.input.Width = width - 4
	m.rerenderAll()
}

func (m *chatModel) rerenderAll() {
	m.rendered = m.rendered[:0]
	for _, msg := range m.messages {
		m.rendered = append(m.rendered, render.Render(msg, m.viewport.Width))
	}
	m.viewport.SetContent(strings.Join(m.rendered, "\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) appendMessage(msg chat.Message) {
	m.messages = append(m.messages, msg)
	m.copied = false
	if !m.sized {
		return
	}
	m.rendered = append(m.rendered, render.Render(msg, m.viewport.Width))
	m.viewport.SetContent(strings.Join(m.rendered, "\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) lastBotText() string {
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.Role != chat.RoleBot {
			continue
		}
		if text, ok := msg.Content.(chat.PlainText); ok {
			return text.Text
		}
	}
	return ""
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "enter":
			text := m.input.Value()
			m.input.Reset()
			select {
			case submitChan <- text:
			default:
			}
			return m, nil

		case "ctrl+r":
			if m.voice == VoiceIdle && !m.busy {
				select {
				case recordChan <- struct{}{}:
				default:
				}
			}
			return m, nil

		case "esc":
			if m.voice == VoiceRecording {
				fireCaptureStop()
			}
			return m, nil

		case "ctrl+y":
			if text := m.lastBotText(); text != "" {
				if err := clipboard.Copy(text); err == nil {
					m.copied = true
				}
			}
			return m, nil

		case "ctrl+g":
			select {
			case deviceSelectChan <- struct{}{}:
			default:
			}
			return m, nil
		}

	case MessageMsg:
		m.appendMessage(msg.Message)

	case BusyMsg:
		m.busy = msg.On

	case VoiceStateMsg:
		m.voice = msg.State
		if msg.State == VoiceRecording {
			m.recDur = 0
			m.audioLevel = 0
			m.noVoice = false
		}
		if msg.State == VoiceIdle {
			m.audioLevel = 0
		}

	case RecordingTickMsg:
		m.recDur = msg.Duration

	case AudioLevelMsg:
		if m.voice == VoiceRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case NoVoiceWarningMsg:
		m.noVoice = true

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func levelBar(level float64) string {
	const barWidth = 12
	filled := int(level * 10 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return levelStyle.Render(strings.Repeat("▮", filled)) +
		statusDimStyle.Render(strings.Repeat("▯", barWidth-filled))
}

func (m chatModel) statusLine() string {
	switch m.voice {
	case VoiceRecording:
		line := statusRecStyle.Render(fmt.Sprintf("● REC %.1fs", m.recDur)) + " " + levelBar(m.audioLevel)
		if m.noVoice {
			line += statusWarnStyle.Render("  ⚠ no voice detected")
		}
		return line + statusDimStyle.Render("  (esc to stop)")
	case VoiceSending:
		return m.spin.View() + statusSendStyle.Render("sending voice...")
	}
	if m.busy {
		return m.spin.View() + statusSendStyle.Render("thinking...")
	}
	line := statusDimStyle.Render("○ ready")
	if m.copied {
		line += " " + copiedStyle.Render("[✓ copied]")
	}
	if m.deviceLine != "" {
		line += statusDimStyle.Render("  " + m.deviceLine)
	}
	return line
}

func (m chatModel) View() string {
	if !m.sized {
		return "Loading..."
	}

	help := helpBoldStyle.Render("enter") + helpStyle.Render(" send  ") +
		helpBoldStyle.Render("ctrl+r") + helpStyle.Render(" voice  ") +
		helpBoldStyle.Render("ctrl+y") + helpStyle.Render(" copy  ") +
		helpBoldStyle.Render("ctrl+g") + helpStyle.Render(" mic  ") +
		helpBoldStyle.Render("ctrl+c") + helpStyle.Render(" quit")

	return m.viewport.View() + "\n" +
		m.statusLine() + "\n" +
		m.input.View() + "\n" +
		help
}

// tuiSink forwards controller events to the running Bubble Tea program.
type tuiSink struct{}

func (tuiSink) Message(msg chat.Message)       { tuiSend(MessageMsg{Message: msg}) }
func (tuiSink) Busy(on bool)                   { tuiSend(BusyMsg{On: on}) }
func (tuiSink) Voice(state VoiceState)         { tuiSend(VoiceStateMsg{State: state}) }
func (tuiSink) RecordingTick(duration float64) { tuiSend(RecordingTickMsg{Duration: duration}) }
func (tuiSink) AudioLevel(level float64)       { tuiSend(AudioLevelMsg{Level: level}) }
func (tuiSink) NoVoiceWarning()                { tuiSend(NoVoiceWarningMsg{}) }
