package services

import (
	"testing"
	"time"
)

func TestApplySM2PerfectStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	state := newSM2State()

	prevInterval := 0
	prevDue := now
	for i := 0; i < 10; i++ {
		var due time.Time
		state, due = applySM2(state, 5, now)

		if state.Easiness < 1.3 {
			t.Fatalf("review %d: easiness %v dropped below floor", i, state.Easiness)
		}
		if state.IntervalDays < prevInterval {
			t.Fatalf("review %d: interval %d shrank from %d on a quality-5 streak", i, state.IntervalDays, prevInterval)
		}
		if due.Before(prevDue) {
			t.Fatalf("review %d: nextDue moved backwards", i)
		}
		prevInterval = state.IntervalDays
		prevDue = due
	}

	if state.Repetitions != 10 {
		t.Fatalf("repetitions=%d, want 10", state.Repetitions)
	}
	// Ladder starts 1, 6 then grows multiplicatively.
	if state.IntervalDays <= 6 {
		t.Fatalf("interval=%d after 10 perfect reviews, want >6", state.IntervalDays)
	}
}

func TestApplySM2IntervalLadder(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	state := newSM2State()

	state, _ = applySM2(state, 4, now)
	if state.IntervalDays != 1 {
		t.Fatalf("first pass: interval=%d, want 1", state.IntervalDays)
	}
	state, _ = applySM2(state, 4, now)
	if state.IntervalDays != 6 {
		t.Fatalf("second pass: interval=%d, want 6", state.IntervalDays)
	}
	state, _ = applySM2(state, 4, now)
	if state.IntervalDays < 6 {
		t.Fatalf("third pass: interval=%d, want >=6", state.IntervalDays)
	}
}

func TestApplySM2FailureResets(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	state := newSM2State()
	for i := 0; i < 5; i++ {
		state, _ = applySM2(state, 5, now)
	}
	if state.Repetitions != 5 {
		t.Fatalf("setup: repetitions=%d, want 5", state.Repetitions)
	}

	state, due := applySM2(state, 0, now)
	if state.Repetitions != 0 {
		t.Fatalf("repetitions=%d after failure, want 0", state.Repetitions)
	}
	if state.IntervalDays != 1 {
		t.Fatalf("interval=%d after failure, want 1", state.IntervalDays)
	}
	if want := now.AddDate(0, 0, 1); !due.Equal(want) {
		t.Fatalf("nextDue=%v, want %v", due, want)
	}
}

func TestApplySM2EasinessFloor(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	state := newSM2State()
	for i := 0; i < 20; i++ {
		state, _ = applySM2(state, 0, now)
		if state.Easiness < 1.3 {
			t.Fatalf("easiness %v below floor after %d failures", state.Easiness, i+1)
		}
	}
	if state.Easiness != 1.3 {
		t.Fatalf("easiness=%v after repeated failures, want exactly the 1.3 floor", state.Easiness)
	}
}

func TestApplySM2MasteryBlend(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	state := sm2State{Easiness: 2.5, IntervalDays: 1, Repetitions: 0, Mastery: 5}
	next, _ := applySM2(state, 5, now)
	// 0.7*5 + 0.3*10 = 6.5
	if diff := next.Mastery - 6.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mastery=%v, want 6.5", next.Mastery)
	}

	// Mastery converges toward 10 on a perfect streak but never exceeds it.
	for i := 0; i < 50; i++ {
		next, _ = applySM2(next, 5, now)
	}
	if next.Mastery > 10 || next.Mastery < 9.9 {
		t.Fatalf("mastery=%v after long perfect streak, want ~10 and <=10", next.Mastery)
	}

	// A zero-quality review drags mastery down by the same blend.
	down, _ := applySM2(sm2State{Easiness: 2.5, Mastery: 10}, 0, now)
	if diff := down.Mastery - 7.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mastery=%v after failure, want 7.0", down.Mastery)
	}
}
