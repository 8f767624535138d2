package shared

import "context"

// Sink accepts one reading per call. A non-nil error marks the reading as
// failed; the runner logs it and moves on.
type Sink interface {
	Name() string
	Send(ctx context.Context, r Reading) error
}

type InsertFunc func(ctx context.Context, r Reading) error

type funcSink struct {
	name   string
	insert InsertFunc
}

// SinkFunc wraps insert as a Sink reporting the given name.
func SinkFunc(name string, insert InsertFunc) Sink {
	return &funcSink{name: name, insert: insert}
}

func (f *funcSink) Name() string {
	return f.name
}

func (f *funcSink) Send(ctx context.Context, r Reading) error {
	return f.insert(ctx, r)
}
