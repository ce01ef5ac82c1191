package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashendes/payplus-connector/internal/apperrors"
)

const sampleYAML = `
merchant:
  id: M-100
  secret: file-secret
  application_key: app-key
gateway:
  environment: sandbox
  sandbox_endpoint: https://sandbox.gateway.test/session
  live_endpoint: https://live.gateway.test/session
  timeout: 20s
shop:
  domain: shop.test
  notify_url: https://shop.test/payplus/webhook
  redirect_url: https://shop.test/order-confirmation?ref={orderReference}
order_states:
  payment_accepted: 12
database:
  driver: sqlite
  dsn: "file::memory:"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payplus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "M-100", cfg.Merchant.ID)
	assert.Equal(t, "file-secret", cfg.Merchant.Secret)
	assert.Equal(t, 20*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 12, cfg.OrderStates.PaymentAccepted)
	assert.Equal(t, 8, cfg.OrderStates.PaymentError, "defaults fill unset keys")
	assert.Equal(t, "PRESTASHOP", cfg.Shop.Source)
	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("PAYPLUS_MERCHANT_SECRET", "env-secret")
	t.Setenv("PAYPLUS_GATEWAY_ENVIRONMENT", "live")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Merchant.Secret)
	assert.True(t, cfg.IsLive())
	assert.Equal(t, "https://live.gateway.test/session", cfg.Endpoint())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEndpointSelection(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Gateway.SandboxEndpoint = "https://sandbox.test"
	cfg.Gateway.LiveEndpoint = "https://live.test"

	for _, env := range []string{"", "sandbox", "LIVE", "Live", "production", "live "} {
		cfg.Gateway.Environment = env
		assert.Equal(t, "https://sandbox.test", cfg.Endpoint(), "environment %q", env)
	}

	cfg.Gateway.Environment = "live"
	assert.Equal(t, "https://live.test", cfg.Endpoint())
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	broken := *cfg
	broken.Merchant.Secret = ""
	broken.Merchant.ApplicationKey = ""
	err = broken.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConfiguration))
	assert.Contains(t, err.Error(), "merchant.secret")
	assert.Contains(t, err.Error(), "merchant.application_key")

	insecure := *cfg
	insecure.Gateway.Environment = "live"
	insecure.Gateway.LiveEndpoint = "http://live.gateway.test/session"
	assert.True(t, apperrors.Is(insecure.Validate(), apperrors.KindConfiguration))

	noEndpoint := *cfg
	noEndpoint.Gateway.SandboxEndpoint = ""
	assert.True(t, apperrors.Is(noEndpoint.Validate(), apperrors.KindConfiguration))
}

func TestRedirectURLFor(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test/order-confirmation?ref=ORD+1%2F2", cfg.RedirectURLFor("ORD 1/2"))
}

func TestMaskedHidesSecrets(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	masked := cfg.Masked()
	assert.Equal(t, "****", masked.Merchant.Secret)
	assert.Equal(t, "****", masked.Merchant.ApplicationKey)
	assert.Equal(t, "file-secret", cfg.Merchant.Secret)
}
