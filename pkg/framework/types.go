package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is an opaque unit of work posted into a loop from outside.
// Messages are delivered to controllers on the next iteration, so all
// state mutation stays on the loop goroutine.
type Message interface{}

// Controller defines one unit of controlling logic executed every
// loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext provides the context of the current iteration.
type ControlContext interface {
	// Context retrieves the context.Context the loop runs with.
	Context() context.Context
	// Time is the timestamp sampled when this iteration started.
	// Controllers use it for all deadline arithmetic so one iteration
	// observes a single consistent instant.
	Time() time.Time
	// Messages retrieves the messages collected since the previous
	// iteration, in posting order.
	Messages() []Message

	LoopControl
}

// LoopControl exposes access to the owning loop.
type LoopControl interface {
	// PostMessage enqueues a message for the next iteration.
	// Safe to call from any goroutine.
	PostMessage(Message)
	// TriggerNext schedules the next iteration immediately instead of
	// waiting for the interval tick.
	TriggerNext()
}
