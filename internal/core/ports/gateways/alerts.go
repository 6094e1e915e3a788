package gateways

import (
	"context"
	"time"
)

// Alert is a message for the operator-facing error channel.
type Alert struct {
	Kind       string            `json:"kind"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RaisedAt   time.Time         `json:"raisedAt"`
}

// AlertPublisher delivers alerts to operators.
type AlertPublisher interface {
	Publish(ctx context.Context, alert Alert) error
}
