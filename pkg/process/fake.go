package process

import (
	"context"
	"sync"
)

// Recorder is a Runner that records every command and delegates to Func.
// It lets tests observe tool invocations without spawning processes.
type Recorder struct {
	// Func is called for each command. A nil Func succeeds with empty output.
	Func func(ctx context.Context, cmd Command) (*Result, error)

	mu       sync.Mutex
	commands []Command
}

// Run records cmd and delegates to Func.
func (r *Recorder) Run(ctx context.Context, cmd Command) (*Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if r.Func == nil {
		return &Result{}, nil
	}
	return r.Func(ctx, cmd)
}

// Commands returns a copy of the recorded commands in call order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Count returns how many recorded commands have the given program name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if c.Name == name {
			n++
		}
	}
	return n
}

var _ Runner = (*Recorder)(nil)
