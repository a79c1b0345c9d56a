package types

// OutcomeStatus tells how a fallback attempt went.
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeDegraded OutcomeStatus = "degraded"
	OutcomeFailed   OutcomeStatus = "failed"
)

// Outcome is the explicit result of one fallback attempt:
// Ok(data), Degraded(data, reason) or Failed(err).
type Outcome[T any] struct {
	Status OutcomeStatus
	Data   T
	Reason string
	Err    error
}

// Ok wraps a full-fidelity result.
func Ok[T any](data T) Outcome[T] {
	return Outcome[T]{Status: OutcomeOK, Data: data}
}

// Degraded wraps a usable but lower-fidelity result.
func Degraded[T any](data T, reason string) Outcome[T] {
	return Outcome[T]{Status: OutcomeDegraded, Data: data, Reason: reason}
}

// Failed wraps an attempt that produced nothing usable.
func Failed[T any](err error) Outcome[T] {
	o := Outcome[T]{Status: OutcomeFailed, Err: err}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// Usable reports whether the attempt produced data.
func (o Outcome[T]) Usable() bool {
	return o.Status == OutcomeOK || o.Status == OutcomeDegraded
}
