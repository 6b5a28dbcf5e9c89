// Package llm defines a provider-neutral chat completion abstraction with
// tool calling. Provider adapters live in the subpackages.
package llm

import (
	"context"
)

// Client provides a provider-neutral interface for making chat completion
// calls. Implementations handle provider-specific wire formats internally.
type Client interface {
	// Synchronous sends a request and returns a complete response.
	Synchronous(ctx context.Context, req *Request) (*Response, error)
}
