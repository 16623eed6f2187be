package runner

import (
	"context"
	"sync"
)

// Fake is a scripted Runner for tests. Each Run pops the next queued result;
// an empty queue returns a passing run.
type Fake struct {
	mu      sync.Mutex
	queue   []Result
	err     error
	Calls   []Request
	RunFunc func(ctx context.Context, req Request) (Result, error)
}

// NewFake returns an empty fake runner.
func NewFake() *Fake {
	return &Fake{}
}

// Queue appends a result to be returned by the next Run call.
func (f *Fake) Queue(r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, r)
}

// FailWith makes every Run return err.
func (f *Fake) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, req Request) (Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	runFunc := f.RunFunc
	err := f.err
	var next Result
	hasNext := len(f.queue) > 0
	if hasNext {
		next = f.queue[0]
		f.queue = f.queue[1:]
	}
	f.mu.Unlock()

	if runFunc != nil {
		return runFunc(ctx, req)
	}
	if err != nil {
		return Result{}, err
	}
	if hasNext {
		return next, nil
	}
	return Result{
		Passed:     true,
		Summary:    "all tests passed",
		Total:      1,
		PassCount:  1,
		DurationMs: 5,
	}, nil
}

// CallCount returns how many times Run was invoked.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
