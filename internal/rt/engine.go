package rt

import (
	"fmt"

	"github.com/samcharles93/loom/internal/device"
	"github.com/samcharles93/loom/internal/tensor"
)

// armEvent lazily creates the completion event on first use and marks it
// pending for the run about to start. The event is created once and reused
// for every subsequent run of this instance.
func (m *Model) armEvent() error {
	if m.runFinished == nil {
		ev, err := m.backend.NewEvent()
		if err != nil {
			return fmt.Errorf("rt: create completion event: %w", err)
		}
		m.runFinished = ev
	}
	m.runFinished.Arm()
	return nil
}

// Run executes the model body over the given inputs and records the
// completion marker on the stream. On asynchronous backends Run returns as
// soon as the work is enqueued; callers observe completion through
// IsFinished or WaitForCompletion. Output handle ownership passes to the
// caller.
func (m *Model) Run(inputs, outputs []tensor.Handle, stream device.Stream, exec ProxyExecutor) error {
	if err := m.armEvent(); err != nil {
		return err
	}
	if err := m.body.Run(inputs, outputs, stream, exec); err != nil {
		return fmt.Errorf("rt: run body: %w", err)
	}
	if err := m.runFinished.Record(stream); err != nil {
		return fmt.Errorf("rt: record completion: %w", err)
	}
	return nil
}

// RunConstFold executes the constant-folding pass and returns the folded
// constants by name. It shares the completion event with Run; the two are
// never in flight concurrently on one instance.
func (m *Model) RunConstFold(stream device.Stream, exec ProxyExecutor, initialization bool) (map[string]tensor.Handle, error) {
	if err := m.armEvent(); err != nil {
		return nil, err
	}
	folded, err := m.body.ConstFold(stream, exec, initialization)
	if err != nil {
		return nil, fmt.Errorf("rt: fold body: %w", err)
	}
	if err := m.runFinished.Record(stream); err != nil {
		return nil, fmt.Errorf("rt: record completion: %w", err)
	}
	return folded, nil
}

// IsFinished polls run completion without blocking. Before any run has
// started, a synchronous backend reports not-finished while an asynchronous
// one reports a state error, since polling an unrecorded device event is a
// programming mistake there. A query error means the device reported a
// failure state for the recorded work and the instance should be discarded.
func (m *Model) IsFinished() (bool, error) {
	if m.runFinished == nil {
		if m.backend.Synchronous() {
			return false, nil
		}
		return false, ErrEventNotInitialized
	}
	done, err := m.runFinished.Query()
	if err != nil {
		return false, fmt.Errorf("rt: run did not finish successfully: %w", err)
	}
	return done, nil
}

// WaitForCompletion blocks until the most recent run completes. Calling it
// before any run has started is a state error on every backend.
func (m *Model) WaitForCompletion() error {
	if m.runFinished == nil {
		return ErrNoRun
	}
	if err := m.runFinished.Synchronize(); err != nil {
		return fmt.Errorf("rt: wait for completion: %w", err)
	}
	return nil
}
