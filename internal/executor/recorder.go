package executor

import (
	"context"
	"sync"
)

// Recorder is a Runner test double. It records every command and returns
// the result of RunFunc, or a successful empty result when RunFunc is nil.
type Recorder struct {
	RunFunc func(ctx context.Context, cmd Command) Result

	mu    sync.Mutex
	calls []Command
}

// Run records the command
func (r *Recorder) Run(ctx context.Context, cmd Command) Result {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	fn := r.RunFunc
	r.mu.Unlock()

	if fn == nil {
		return Succeeded("")
	}
	return fn(ctx, cmd)
}

// Calls returns the recorded commands in order
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.calls...)
}

// Count returns the number of recorded commands
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Succeeded builds a successful result with exit code 0
func Succeeded(output string) Result {
	code := 0
	return Result{Success: true, Output: output, ExitCode: &code}
}

// Failed builds a result for a command that exited non-zero
func Failed(exitCode int, message string) Result {
	return Result{Success: false, Output: message, Error: message, ExitCode: &exitCode}
}

// TimedOutResult builds the result of a command killed by its timeout
func TimedOutResult() Result {
	return Result{Success: false, Error: ReasonTimeout}
}
