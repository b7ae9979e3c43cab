package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Generator for tests and offline runs.
type Fake struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests []*Request
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Generate(ctx context.Context, req *Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// Requests returns the requests received so far.
func (f *Fake) Requests() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Request(nil), f.requests...)
}
