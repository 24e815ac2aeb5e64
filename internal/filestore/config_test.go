package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koustreak/erdview/internal/errs"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "nil is disabled", cfg: nil},
		{name: "no endpoint is disabled", cfg: &Config{}},
		{name: "local minio", cfg: DefaultConfig("localhost:9000", "minioadmin", "minioadmin")},
		{name: "missing secret", cfg: DefaultConfig("localhost:9000", "minioadmin", ""), wantErr: true},
		{name: "unknown provider", cfg: &Config{Provider: "azure", Endpoint: "x", AccessKey: "a", SecretKey: "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, errs.IsInvalidInput(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	var nilCfg *Config
	assert.False(t, nilCfg.Enabled())
	assert.False(t, (&Config{}).Enabled())
	assert.True(t, DefaultConfig("localhost:9000", "a", "b").Enabled())
}
