package service

import (
	"context"
	"fmt"
	"time"
)

// ContactActivitySource reports when a conversation last heard from the
// contact.
type ContactActivitySource interface {
	LatestContactMessageAt(ctx context.Context, conversationID string) (time.Time, error)
}

// ReengagementGate refuses free-form sends to conversations where the
// contact has been silent longer than the provider's messaging window.
// Template sends bypass it.
type ReengagementGate struct {
	activity ContactActivitySource
	window   time.Duration
	now      func() time.Time
}

func NewReengagementGate(activity ContactActivitySource, windowHours int) *ReengagementGate {
	return &ReengagementGate{
		activity: activity,
		window:   time.Duration(windowHours) * time.Hour,
		now:      time.Now,
	}
}

// AllowFreeForm reports whether the conversation produced any
// contact-originated message within the window.
func (g *ReengagementGate) AllowFreeForm(ctx context.Context, conversationID string) (bool, error) {
	last, err := g.activity.LatestContactMessageAt(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to check re-engagement window: %w", err)
	}
	if last.IsZero() {
		return false, nil
	}
	return g.now().Sub(last) <= g.window, nil
}
