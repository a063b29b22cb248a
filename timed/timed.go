// Package timed provides the outcome type shared by every pipeline stage and
// every memory operation.
//
// A Result is either a failure or a value paired with the number of simulated
// cycles that remain before the value is authoritative. Waiting does not
// suspend the caller; the cycle count is bookkeeping that callers accumulate.
//
// Usage:
//
//	r := memory.Get(addr)
//	if r.Failed() {
//		return timed.Fail[uint32](r.Err)
//	}
//	total += r.Cycles
package timed

// Result is the outcome of a timed operation.
type Result[T any] struct {
	// Cycles is the number of additional simulated cycles before Value is
	// available. It is meaningless when Err is set.
	Cycles uint64

	// Value is the produced value.
	Value T

	// Err is set if the operation failed.
	Err error
}

// Status is a Result that carries no value.
type Status = Result[struct{}]

// Wait returns a successful result available after the given cycles.
func Wait[T any](cycles uint64, value T) Result[T] {
	return Result[T]{Cycles: cycles, Value: value}
}

// Done returns a successful Status available after the given cycles.
func Done(cycles uint64) Status {
	return Status{Cycles: cycles}
}

// Fail returns a failed result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Ready returns true if the result succeeded and no cycles remain.
func (r Result[T]) Ready() bool {
	return r.Err == nil && r.Cycles == 0
}

// Failed returns true if the result carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Unwrap returns the value, the remaining cycles and the error.
func (r Result[T]) Unwrap() (T, uint64, error) {
	return r.Value, r.Cycles, r.Err
}

// Add returns a copy of the result with extra latency. Failed results are
// returned unchanged.
func (r Result[T]) Add(cycles uint64) Result[T] {
	if r.Err != nil {
		return r
	}
	r.Cycles += cycles
	return r
}

// Status drops the value, keeping latency and error.
func (r Result[T]) Status() Status {
	return Status{Cycles: r.Cycles, Err: r.Err}
}

// Then composes a dependent operation. The total latency is the sum of both
// operations. If either fails the combined result fails and no latency is
// charged.
func Then[A, B any](r Result[A], next func(A) Result[B]) Result[B] {
	if r.Err != nil {
		return Fail[B](r.Err)
	}

	out := next(r.Value)
	if out.Err != nil {
		return Fail[B](out.Err)
	}

	out.Cycles += r.Cycles
	return out
}
