package timer

import "testing"

func tick(t *testing.T, m *Machine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, done := m.Tick(); done {
			t.Fatalf("unexpected completion on tick %d", i+1)
		}
	}
}

func TestNewStartsIdleAtFullFocus(t *testing.T) {
	m := New(25, 5)
	if m.Running() {
		t.Fatal("new machine should not be running")
	}
	if m.Phase() != PhaseFocus {
		t.Fatalf("phase = %v, want focus", m.Phase())
	}
	if m.Remaining() != 25*60 {
		t.Fatalf("remaining = %d, want %d", m.Remaining(), 25*60)
	}
}

func TestTickWhileIdleDoesNothing(t *testing.T) {
	m := New(25, 5)
	if _, done := m.Tick(); done {
		t.Fatal("idle machine should not complete")
	}
	if m.Remaining() != 25*60 {
		t.Fatalf("idle tick changed remaining to %d", m.Remaining())
	}
}

func TestFocusCompletesAfterExactTicks(t *testing.T) {
	m := New(1, 1) // 60 second phases
	m.Start()

	tick(t, m, 59)
	if m.Remaining() != 1 {
		t.Fatalf("remaining = %d, want 1", m.Remaining())
	}

	done, completed := m.Tick()
	if !completed {
		t.Fatal("60th tick should complete the focus period")
	}
	if done.Ended != PhaseFocus {
		t.Fatalf("ended phase = %v, want focus", done.Ended)
	}
	if !done.RecordSession {
		t.Fatal("focus completion should record a session")
	}
	if done.DurationMinutes != 1 {
		t.Fatalf("duration = %d, want 1", done.DurationMinutes)
	}

	// The machine flips to a full break and pauses.
	if m.Running() {
		t.Fatal("machine should pause on completion")
	}
	if m.Phase() != PhaseBreak {
		t.Fatalf("phase = %v, want break", m.Phase())
	}
	if m.Remaining() != 60 {
		t.Fatalf("remaining = %d, want full break", m.Remaining())
	}
}

func TestBreakCompletionDoesNotRecord(t *testing.T) {
	m := New(1, 1)
	m.Start()
	tick(t, m, 59)
	m.Tick() // finish focus

	m.Start()
	tick(t, m, 59)
	done, completed := m.Tick()
	if !completed {
		t.Fatal("break should complete")
	}
	if done.RecordSession {
		t.Fatal("break completion must not record a session")
	}
	if m.Phase() != PhaseFocus {
		t.Fatalf("phase = %v, want focus after break", m.Phase())
	}
}

func TestPauseResumeIsExact(t *testing.T) {
	m := New(1, 1)
	m.Start()
	tick(t, m, 10)

	m.Pause()
	before := m.Remaining()
	if _, done := m.Tick(); done || m.Remaining() != before {
		t.Fatal("paused machine must not advance")
	}

	m.Start()
	if m.Remaining() != before {
		t.Fatalf("resume changed remaining from %d to %d", before, m.Remaining())
	}
	tick(t, m, before-1)
	if _, completed := m.Tick(); !completed {
		t.Fatal("should complete exactly at the original remaining count")
	}
}

func TestResetRestoresActivePhaseOnly(t *testing.T) {
	m := New(2, 1)
	m.Start()
	tick(t, m, 30)

	m.Reset()
	if m.Running() {
		t.Fatal("reset should pause the machine")
	}
	if m.Phase() != PhaseFocus {
		t.Fatal("reset must not change the phase")
	}
	if m.Remaining() != 2*60 {
		t.Fatalf("remaining = %d, want full focus", m.Remaining())
	}

	// Complete focus, then reset during the break.
	m.Start()
	tick(t, m, 2*60-1)
	m.Tick()
	m.Start()
	tick(t, m, 5)
	m.Reset()
	if m.Phase() != PhaseBreak {
		t.Fatal("reset during break must stay in break")
	}
	if m.Remaining() != 60 {
		t.Fatalf("remaining = %d, want full break", m.Remaining())
	}
}

func TestSetDurationsWhileIdleResetsRemaining(t *testing.T) {
	m := New(25, 5)
	m.SetDurations(50, 10)
	if m.Remaining() != 50*60 {
		t.Fatalf("remaining = %d, want %d", m.Remaining(), 50*60)
	}
}

func TestSetDurationsWhileRunningKeepsRemaining(t *testing.T) {
	m := New(1, 1)
	m.Start()
	tick(t, m, 10)
	before := m.Remaining()

	m.SetDurations(50, 10)
	if m.Remaining() != before {
		t.Fatalf("running remaining changed from %d to %d", before, m.Remaining())
	}
	// The next phase still uses the new duration.
	tick(t, m, before-1)
	m.Tick()
	if m.Remaining() != 10*60 {
		t.Fatalf("break remaining = %d, want %d", m.Remaining(), 10*60)
	}
}

func TestProgress(t *testing.T) {
	m := New(1, 1)
	if m.Progress() != 0 {
		t.Fatalf("initial progress = %f, want 0", m.Progress())
	}
	m.Start()
	tick(t, m, 30)
	if p := m.Progress(); p != 0.5 {
		t.Fatalf("progress = %f, want 0.5", p)
	}
	tick(t, m, 29)
	m.Tick()
	// After completion, progress reports the fresh break phase.
	if p := m.Progress(); p != 0 {
		t.Fatalf("post-completion progress = %f, want 0", p)
	}
}
