package mail

import (
	"context"
	"strings"
)

// Envelope is the provider-agnostic message handed to a transport.
type Envelope struct {
	From    string
	ReplyTo string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Recipients joins the recipient list into the single comma-separated string
// every provider receives, however many addresses the caller passed.
func (e Envelope) Recipients() string {
	return strings.Join(e.To, ",")
}

// Transport sends messages through one concrete provider and can check its
// own connectivity.
type Transport interface {
	Send(ctx context.Context, env Envelope) (messageID string, err error)
	Verify(ctx context.Context) error
}

// Result is the outcome of a successful strict dispatch.
type Result struct {
	MessageID string
	Success   bool
}
