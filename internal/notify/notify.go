// Package notify sends check status transitions to push notification services.
package notify

import (
	"context"
	"fmt"

	"github.com/jandubois/jmxcheck/internal/check"
)

// Channel is a notification channel.
type Channel interface {
	Send(ctx context.Context, msg *Message) error
	Type() string
}

// Message contains notification details.
type Message struct {
	Title    string
	Body     string
	Priority Priority
	Tags     []string
}

// Priority levels for notifications.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// StatusChange represents a check status transition. OldStatus is empty for
// the first recorded result.
type StatusChange struct {
	Section   string
	Member    string
	OldStatus check.Status
	NewStatus check.Status
	Value     string
	Message   string
}

// Changed reports whether the status differs from the previous one. A first
// result only counts as a change when it is not ok.
func (c *StatusChange) Changed() bool {
	if c.OldStatus == "" {
		return c.NewStatus != check.StatusOK
	}
	return c.OldStatus != c.NewStatus
}

// FormatStatusChange creates a notification message for a status change.
func FormatStatusChange(change *StatusChange) *Message {
	priority := PriorityNormal
	switch change.NewStatus {
	case check.StatusCritical:
		priority = PriorityUrgent
	case check.StatusWarning:
		priority = PriorityHigh
	}

	title := fmt.Sprintf("[%s] %s/%s", change.NewStatus, change.Section, change.Member)
	body := change.Message
	if body == "" {
		body = "value " + change.Value
	}
	if change.OldStatus != "" {
		body = fmt.Sprintf("%s → %s: %s", change.OldStatus, change.NewStatus, body)
	}

	tags := []string{string(change.NewStatus)}
	if change.OldStatus != "" && change.NewStatus == check.StatusOK {
		tags = append(tags, "recovery")
	}

	return &Message{
		Title:    title,
		Body:     body,
		Priority: priority,
		Tags:     tags,
	}
}
