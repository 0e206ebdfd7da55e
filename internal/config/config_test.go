package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/triage/triage.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.Sync.DrainInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Sync.NotifyDelay)
	assert.Equal(t, 25, cfg.Batch.ChunkSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Classification.JunkFolders)
	assert.Equal(t, ":9464", cfg.Server.Addr)
	assert.False(t, cfg.Server.TLS)
	assert.Equal(t, "/home/tester/.local/share/triage/certs", cfg.Server.CertDir)
	assert.InDelta(t, 5.0, cfg.Server.ChangeRate, 0.001)
	assert.Equal(t, 10, cfg.Server.ChangeBurst)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/triage-test.db
user:
  address: " me@corp.example "
classification:
  junk_folders: [AAMkJunk, Pourriel]
sync:
  drain_interval: 500ms
batch:
  chunk_size: 10
  workers: 3
logging:
  level: debug
`), 0600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/triage-test.db", cfg.Database.Path)
	assert.Equal(t, "me@corp.example", cfg.User.Address)
	assert.Equal(t, []string{"AAMkJunk", "Pourriel"}, cfg.Classification.JunkFolders)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.DrainInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.Sync.NotifyDelay)
	assert.Equal(t, 10, cfg.Batch.ChunkSize)
	assert.Equal(t, 3, cfg.Batch.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		want  error
		name  string
		key   string
		value any
	}{
		{name: "negative chunk size", key: "batch.chunk_size", value: -1, want: common.ErrInvalidConfig},
		{name: "negative workers", key: "batch.workers", value: -2, want: common.ErrInvalidConfig},
		{name: "bad log level", key: "logging.level", value: "loud", want: common.ErrInvalidConfig},
		{name: "empty database path", key: "database.path", value: " ", want: common.ErrMissingConfig},
		{name: "negative interval", key: "sync.drain_interval", value: "-1s", want: common.ErrInvalidConfig},
		{name: "negative change rate", key: "server.change_rate", value: -1.5, want: common.ErrInvalidConfig},
		{name: "tls without cert dir", key: "server.cert_dir", value: "", want: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set("server.tls", true)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("TRIAGE_DIR", "/data")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/triage.db", "/home/tester/triage.db"},
		{"$TRIAGE_DIR/triage.db", "/data/triage.db"},
		{"/abs/path.db", "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
