package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Address())
	assert.Equal(t, 300, cfg.Engine.DefaultRadius)
	assert.Equal(t, 3, cfg.Overpass.Retries)
	assert.Equal(t, 30*time.Second, cfg.Overpass.Timeout)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.False(t, cfg.Nats.Enabled)
	assert.False(t, cfg.ImageSearch.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  requestTimeout: 5s
engine:
  timezone: Asia/Seoul
nats:
  enabled: true
  host: nats.internal
  port: "4223"
`), 0o600))

	t.Setenv("LLM_APIKEY", "sk-test")
	t.Setenv("SERVER_HOST", "127.0.0.1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address())
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "nats://nats.internal:4223", cfg.Nats.ConnStr())

	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestEngineLocation(t *testing.T) {
	loc, err := Engine{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = Engine{Timezone: "Mars/Olympus_Mons"}.Location()
	assert.Error(t, err)
}

func TestPostgresConnStr(t *testing.T) {
	p := Postgres{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=d port=5432 sslmode=disable", p.ConnStr())
}
