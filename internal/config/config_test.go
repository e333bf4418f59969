package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	var (
		cfg    Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(cCtx *cli.Context) error {
			cfg, cfgErr = FromContext(cCtx)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, cfgErr
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Addr:                DefaultAddr,
		AllowOrigins:        []string{DefaultAllowOrigins},
		LogLevel:            DefaultLogLevel,
		MatchmakingInterval: DefaultMatchmakingInterval,
	}, cfg)
}

func TestFlagsAndEnv(t *testing.T) {
	t.Setenv("DAMES_LOG_LEVEL", "debug")
	t.Setenv("DAMES_ALLOW_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := parse(t, "--addr", ":8080", "--log-pretty", "--matchmaking-interval", "250ms")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 250*time.Millisecond, cfg.MatchmakingInterval)
}

func TestValidate(t *testing.T) {
	_, err := parse(t, "--matchmaking-interval", "0s")
	assert.Error(t, err)

	_, err = parse(t, "--allow-origins", " , ")
	assert.Error(t, err)

	_, err = parse(t, "--addr", "")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DAMES_TEST_FROM_FILE=yes\nDAMES_TEST_PRESET=file\n"), 0o600))

	t.Setenv("DAMES_TEST_PRESET", "env")
	t.Setenv("DAMES_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("DAMES_TEST_FROM_FILE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "yes", os.Getenv("DAMES_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("DAMES_TEST_PRESET"), "existing variables win")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
