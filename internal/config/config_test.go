package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 60*time.Second, cfg.Assignment.OfferTTL)
	assert.Equal(t, 45*time.Second, cfg.Assignment.ReassignOfferTTL)
	assert.Equal(t, 10*time.Second, cfg.Assignment.SweepInterval)
	assert.Equal(t, int64(90), cfg.Assignment.TechSharePct)
	assert.Equal(t, "booking.exchange", cfg.Rabbit.Exchange)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HOMESERVE_HTTP_ADDR", ":9090")
	t.Setenv("HOMESERVE_ASSIGNMENT_OFFER_TTL", "30s")
	t.Setenv("HOMESERVE_PAYMENT_WEBHOOK_SECRET", "whsec")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Assignment.OfferTTL)
	assert.Equal(t, "whsec", cfg.Payment.WebhookSecret)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("HOMESERVE_ASSIGNMENT_SWEEP_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)
}
