// Package remote sends local messages to the configured chat endpoint and
// feeds replies into the reveal scheduler. Transport failures are rendered
// into the conversation like any other reply; they never crash the client.
package remote

import "context"

// Client sends one message and returns the reply text.
type Client interface {
	Send(ctx context.Context, message string) (string, error)
}
