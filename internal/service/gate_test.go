package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReengagementGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastContact time.Time
		want        bool
	}{
		{"contact an hour ago", now.Add(-time.Hour), true},
		{"contact exactly at the window edge", now.Add(-24 * time.Hour), true},
		{"contact just past the window", now.Add(-24*time.Hour - time.Minute), false},
		{"contact never wrote", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockLedgerStore{}
			store.On("LatestContactMessageAt", mock.Anything, "c-1").
				Return(tt.lastContact, nil)

			gate := NewReengagementGate(store, 24)
			gate.now = func() time.Time { return now }

			allowed, err := gate.AllowFreeForm(context.Background(), "c-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestReengagementGateStoreFailure(t *testing.T) {
	store := &mockLedgerStore{}
	store.On("LatestContactMessageAt", mock.Anything, "c-1").
		Return(time.Time{}, fmt.Errorf("db closed"))

	gate := NewReengagementGate(store, 24)
	_, err := gate.AllowFreeForm(context.Background(), "c-1")
	assert.Error(t, err)
}
