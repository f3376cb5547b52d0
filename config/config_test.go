package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_defaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "test.example.com.", cfg.Domain)
	assert.Equal(t, uint32(5), cfg.TTL)
	assert.Equal(t, "nobody", cfg.User)
}

func Test_loadFile(t *testing.T) {
	const path = "dnssrc_test.toml"

	err := os.WriteFile(path, []byte(`domain = "zones.example.org."
ttl = 30
ns = ["ns0.zones.example.org.", "ns1.zones.example.org."]
`), 0o644)
	assert.NoError(t, err)
	defer os.Remove(path)

	cfg := Default()
	err = LoadFile(cfg, path)
	assert.NoError(t, err)

	assert.Equal(t, "zones.example.org.", cfg.Domain)
	assert.Equal(t, uint32(30), cfg.TTL)
	assert.Equal(t, []string{"ns0.zones.example.org.", "ns1.zones.example.org."}, cfg.NS)
	assert.Equal(t, "nobody", cfg.User) // untouched fields keep their default
}

func Test_loadFileMissing(t *testing.T) {
	cfg := Default()
	err := LoadFile(cfg, "does-not-exist.toml")
	assert.Error(t, err)
}

func Test_envDefault(t *testing.T) {
	os.Setenv("DNSSRC_DOMAIN", "env.example.net.")
	defer os.Unsetenv("DNSSRC_DOMAIN")

	assert.Equal(t, "env.example.net.", EnvDefault("DOMAIN", "fallback.example."))
	assert.Equal(t, "fallback.example.", EnvDefault("UNSET_KEY", "fallback.example."))
}
