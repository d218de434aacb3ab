package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-stp/liscan/internal/candidate"
)

func validConfig() *ScanConfig {
	cfg := Default()
	cfg.Length = 3
	cfg.Methods = []candidate.Method{candidate.MethodExhaustive}
	return cfg
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, candidate.CharsetAlnum, cfg.Charset)
	assert.Equal(t, 2, cfg.MinRepeats)
	assert.Equal(t, DefaultDictFile, cfg.DictFile)
	assert.Equal(t, time.Second, cfg.BaseDelay())
	assert.Equal(t, 2, cfg.MaxRetries)

	cc := cfg.ClientConfig()
	assert.Equal(t, "whois.nic.ch", cc.Host)
	assert.Equal(t, 4343, cc.Port)
	assert.Equal(t, "li", cc.TLD)
	assert.Equal(t, 10*time.Second, cc.IOTimeout)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ScanConfig)
		field  string
	}{
		{"ok", func(*ScanConfig) {}, ""},
		{"zero length", func(c *ScanConfig) { c.Length = 0 }, "length"},
		{"bad charset", func(c *ScanConfig) { c.Charset = "greek" }, "charset"},
		{"no methods", func(c *ScanConfig) { c.Methods = nil }, "methods"},
		{"bad method", func(c *ScanConfig) { c.Methods = []candidate.Method{"brute"} }, "method"},
		{"repeats low", func(c *ScanConfig) {
			c.Methods = []candidate.Method{candidate.MethodRepeats}
			c.MinRepeats = 1
		}, "min_repeats"},
		{"dict without file", func(c *ScanConfig) {
			c.Methods = []candidate.Method{candidate.MethodDict}
			c.DictFile = ""
		}, "dict_file"},
		{"pinyin without file", func(c *ScanConfig) {
			c.Methods = []candidate.Method{candidate.MethodPinyin}
		}, "pinyin_dict_file"},
		{"negative delay", func(c *ScanConfig) { c.DelaySeconds = -1 }, "delay_seconds"},
		{"negative retries", func(c *ScanConfig) { c.MaxRetries = -1 }, "max_retries"},
		{"negative cap", func(c *ScanConfig) { c.MaxPerMinute = -5 }, "max_per_minute"},
		{"bad port", func(c *ScanConfig) { c.Server.Port = 70000 }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, candidate.ErrConfig)
			var ce *candidate.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length")
	assert.Contains(t, err.Error(), "methods")
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "liscan.yaml")
	content := `
length: 4
charset: letters-hyphen
methods: [all, repeats]
min_repeats: 3
delay_seconds: 0.5
server:
  host: 127.0.0.1
  timeout_seconds: 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Length)
	assert.Equal(t, candidate.CharsetLettersHyphen, cfg.Charset)
	assert.Equal(t, []candidate.Method{candidate.MethodExhaustive, candidate.MethodRepeats}, cfg.Methods)
	assert.Equal(t, 500*time.Millisecond, cfg.BaseDelay())
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, DefaultDictFile, cfg.DictFile)

	cc := cfg.ClientConfig()
	assert.Equal(t, "127.0.0.1", cc.Host)
	assert.Equal(t, 4343, cc.Port)
	assert.Equal(t, 2500*time.Millisecond, cc.DialTimeout)

	spec := cfg.Generation()
	assert.Equal(t, 3, spec.MinRepeats)
	assert.True(t, spec.Enabled(candidate.MethodRepeats))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("length: [nope"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
