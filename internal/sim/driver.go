package sim

import (
	"context"
	"sync"
	"time"
)

// StepFunc performs one discrete update and reports whether the run is done.
type StepFunc func() (done bool)

// StopReason records why a run ended.
type StopReason string

const (
	ReasonDone      StopReason = "done"
	ReasonCapped    StopReason = "capped"
	ReasonStopped   StopReason = "stopped"
	ReasonCancelled StopReason = "cancelled"
)

// Loop describes one animated run.
type Loop struct {
	// Interval is the delay between steps.
	Interval time.Duration
	// MaxSteps caps the run; zero means no cap.
	MaxSteps int
	Step     StepFunc
	// OnStep, if set, is called after every step with the 1-based step count.
	OnStep func(n int)
}

// Driver runs a Loop with cooperative cancellation. It owns the single
// "is running" flag of a demo: Stop clears it and the loop only observes the
// change at the suspension boundary between steps.
type Driver struct {
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	steps   int
	reason  StopReason
}

// Running reports whether a run is in progress.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Run executes loop until its step reports done, MaxSteps is reached, ctx is
// cancelled or Stop is called. If a run is already active it returns
// immediately with started == false.
func (d *Driver) Run(ctx context.Context, loop Loop) (reason StopReason, started bool) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return "", false
	}
	d.running = true
	d.steps = 0
	d.reason = ""
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	d.stopCh = stopCh
	d.doneCh = doneCh
	d.mu.Unlock()

	reason = d.loop(ctx, loop, stopCh)

	d.mu.Lock()
	d.running = false
	d.reason = reason
	d.mu.Unlock()
	close(doneCh)
	return reason, true
}

func (d *Driver) loop(ctx context.Context, loop Loop, stopCh <-chan struct{}) StopReason {
	for n := 1; ; n++ {
		if ctx.Err() != nil {
			return ReasonCancelled
		}
		done := loop.Step()
		d.mu.Lock()
		d.steps = n
		d.mu.Unlock()
		if loop.OnStep != nil {
			loop.OnStep(n)
		}
		if done {
			return ReasonDone
		}
		if loop.MaxSteps > 0 && n >= loop.MaxSteps {
			return ReasonCapped
		}

		// Suspension boundary.
		if loop.Interval > 0 {
			timer := time.NewTimer(loop.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ReasonCancelled
			case <-stopCh:
				timer.Stop()
				return ReasonStopped
			case <-timer.C:
			}
		} else {
			select {
			case <-ctx.Done():
				return ReasonCancelled
			case <-stopCh:
				return ReasonStopped
			default:
			}
		}
	}
}

// Stop clears the running flag. The active step, if any, completes; no step
// starts afterwards. Stop on an idle driver is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running || d.stopCh == nil {
		return
	}
	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}
}

// Wait blocks until the current run, if any, has returned.
func (d *Driver) Wait() {
	d.mu.Lock()
	ch := d.doneCh
	running := d.running
	d.mu.Unlock()
	if running && ch != nil {
		<-ch
	}
}

// Steps returns the number of steps executed by the current or last run.
func (d *Driver) Steps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.steps
}

// LastReason returns why the last run ended; empty while running.
func (d *Driver) LastReason() StopReason {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reason
}
