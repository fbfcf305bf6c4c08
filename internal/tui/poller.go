package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	pipelinePollInterval  = 1200 * time.Millisecond
	synthesisPollInterval = 3 * time.Second
	synthesisWatchdog     = 90 * time.Second
)

// poller gates a recurring status fetch. Ticks are strictly sequential:
// the next one is only scheduled from the handler of the previous status
// message. Stopping only prevents future ticks; a fetch already in flight
// still delivers its message, which carries a token that no longer
// matches and is dropped on arrival.
type poller struct {
	active   bool
	token    int
	interval time.Duration
}

// start arms the poller and mints a fresh token. Starting an active
// poller is a no-op and reports false.
func (p *poller) start() bool {
	if p.active {
		return false
	}
	p.active = true
	p.token++
	return true
}

func (p *poller) stop() {
	p.active = false
}

// current reports whether the given token belongs to the live poll
// generation.
func (p *poller) current(token int) bool {
	return p.active && p.token == token
}

func pipelineTick(token int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pipelineTickMsg{token: token}
	})
}

func synthesisTick(token int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return synthesisTickMsg{token: token}
	})
}

func watchdogTick(token int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return watchdogMsg{token: token}
	})
}
