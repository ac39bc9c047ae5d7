// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailQueueName is the durable queue carrying outbound mail requests.
const EmailQueueName = "auth.email"

// Email kinds, used by the consumer for logging and metrics.
const (
    EmailKindVerification  = "verification"
    EmailKindPasswordReset = "password-reset"
)

// EmailRequestedEvent is published whenever the API wants an email sent.
// Delivery happens asynchronously in the mail worker; the API never waits on
// SMTP. The event carries the fully rendered subject and body so the worker
// stays template-free.
type EmailRequestedEvent struct {
    Kind        string `json:"kind"`
    To          string `json:"to"`
    Subject     string `json:"subject"`
    Body        string `json:"body"`
    RequestedAt string `json:"requested_at"`
}
