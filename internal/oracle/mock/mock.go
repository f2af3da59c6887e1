// Package mock provides a test double for the oracle.Adapter interface.
package mock

import (
	"context"
	"sync"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle"
)

// ResolveCall records a single invocation of Resolve.
type ResolveCall struct {
	// Ctx is the context passed to Resolve.
	Ctx context.Context
	// Req is the Request passed to Resolve.
	Req oracle.Request
}

// Adapter is a mock implementation of oracle.Adapter. Zero values cause
// Resolve to return a Valid=false response; set Response or Err before use.
type Adapter struct {
	mu sync.Mutex

	// Response is returned by Resolve when Err is nil.
	Response *oracle.Response

	// Err, when non-nil, is returned by Resolve.
	Err error

	// ResolveCalls records every invocation.
	ResolveCalls []ResolveCall
}

var _ oracle.Adapter = (*Adapter)(nil)

// Resolve implements oracle.Adapter.
func (a *Adapter) Resolve(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	a.mu.Lock()
	a.ResolveCalls = append(a.ResolveCalls, ResolveCall{Ctx: ctx, Req: req})
	a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}
	if a.Response != nil {
		return a.Response, nil
	}
	return &oracle.Response{Valid: false, Reason: "mock: no response configured"}, nil
}

// Calls returns a snapshot of recorded invocations.
func (a *Adapter) Calls() []ResolveCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ResolveCall, len(a.ResolveCalls))
	copy(out, a.ResolveCalls)
	return out
}
