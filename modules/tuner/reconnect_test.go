package tuner

import (
	"testing"
	"time"
)

func TestBackoffDelays(t *testing.T) {
	s := newReconnectScheduler(time.Second)

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
	for i, w := range want {
		if got := s.delay(i + 1); got != w {
			t.Errorf("delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestScheduleFires(t *testing.T) {
	s := newReconnectScheduler(time.Millisecond)
	fired := make(chan struct{})

	s.schedule(1, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled retry never fired")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := newReconnectScheduler(10 * time.Millisecond)
	fired := make(chan struct{})

	s.schedule(1, func() { close(fired) })
	s.cancel()

	select {
	case <-fired:
		t.Fatal("cancelled retry fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReschedulingCancelsPrior(t *testing.T) {
	s := newReconnectScheduler(time.Millisecond)
	defer s.cancel()

	first := make(chan struct{})
	second := make(chan struct{})

	s.schedule(5, func() { close(first) })  // 32ms
	s.schedule(1, func() { close(second) }) // 2ms

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("replacement retry never fired")
	}

	select {
	case <-first:
		t.Fatal("superseded retry fired")
	case <-time.After(100 * time.Millisecond):
	}
}
