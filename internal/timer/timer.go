// Package timer implements the Pomodoro countdown state machine. The
// machine owns no clock; a driver feeds it ticks, so transitions are
// deterministic and testable without wall-clock delays.
package timer

import "time"

// Phase is the active countdown mode.
type Phase int

const (
	PhaseFocus Phase = iota
	PhaseBreak
)

func (p Phase) String() string {
	if p == PhaseBreak {
		return "break"
	}
	return "focus"
}

// Completion reports a finished period. RecordSession is true when a
// focus period ended and a study session should be recorded.
type Completion struct {
	Ended           Phase
	RecordSession   bool
	DurationMinutes int
}

// Machine tracks the focus/break countdown. All durations are seconds.
type Machine struct {
	phase     Phase
	running   bool
	remaining int

	focusSeconds int
	breakSeconds int
}

// New returns an idle machine at the start of a focus period.
func New(focusMinutes, breakMinutes int) *Machine {
	m := &Machine{
		focusSeconds: focusMinutes * 60,
		breakSeconds: breakMinutes * 60,
	}
	m.remaining = m.focusSeconds
	return m
}

// SetDurations applies new settings. When the machine is not running,
// the current phase's remaining time resets to the new full duration.
func (m *Machine) SetDurations(focusMinutes, breakMinutes int) {
	m.focusSeconds = focusMinutes * 60
	m.breakSeconds = breakMinutes * 60
	if !m.running {
		m.remaining = m.phaseTotal()
	}
}

// Start begins (or resumes) the countdown from the exact remaining time.
func (m *Machine) Start() { m.running = true }

// Pause stops the countdown, preserving the remaining time.
func (m *Machine) Pause() { m.running = false }

// Reset stops the countdown and restores the full duration of the
// currently active phase, never the other.
func (m *Machine) Reset() {
	m.running = false
	m.remaining = m.phaseTotal()
}

// Tick advances one second. When the countdown reaches zero or below it
// performs the completion transition: the tick stops (an implicit pause)
// and the machine flips to the other phase at its full duration. The
// returned bool is true when a period completed on this tick.
func (m *Machine) Tick() (Completion, bool) {
	if !m.running {
		return Completion{}, false
	}
	m.remaining--
	if m.remaining > 0 {
		return Completion{}, false
	}

	done := Completion{
		Ended:           m.phase,
		RecordSession:   m.phase == PhaseFocus,
		DurationMinutes: m.phaseTotal() / 60,
	}

	m.running = false
	if m.phase == PhaseFocus {
		m.phase = PhaseBreak
	} else {
		m.phase = PhaseFocus
	}
	m.remaining = m.phaseTotal()
	return done, true
}

func (m *Machine) phaseTotal() int {
	if m.phase == PhaseBreak {
		return m.breakSeconds
	}
	return m.focusSeconds
}

// Phase returns the active mode.
func (m *Machine) Phase() Phase { return m.phase }

// Running reports whether the countdown is ticking.
func (m *Machine) Running() bool { return m.running }

// Remaining returns the seconds left in the active period.
func (m *Machine) Remaining() int { return m.remaining }

// RemainingDuration returns the remaining time as a time.Duration.
func (m *Machine) RemainingDuration() time.Duration {
	return time.Duration(m.remaining) * time.Second
}

// Progress is the completed fraction of the currently active phase,
// switching totals atomically at the moment of completion.
func (m *Machine) Progress() float64 {
	total := m.phaseTotal()
	if total <= 0 {
		return 0
	}
	return float64(total-m.remaining) / float64(total)
}
