package main

import (
	"context"
	"testing"
	"time"

	"camrent/internal/config"
	"camrent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noBookings struct{}

func (noBookings) ListBookings(context.Context) ([]models.Booking, error) { return nil, nil }

type discard struct{}

func (discard) Enqueue(string) bool { return true }

func TestNewDigest(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		at      string
		wantNil bool
		wantErr bool
	}{
		{"not configured", "", true, false},
		{"valid time", "18:30", false, false},
		{"invalid time", "6pm", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Telegram.DigestTime = tt.at

			digest, err := newDigest(cfg, noBookings{}, discard{}, time.UTC, &logger)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "digest_time")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNil, digest == nil)
		})
	}
}
