package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_firstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "schoolclock.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schoolclock.yaml")
	data := "document: /srv/ehs/context.yaml\n" +
		"log_level: loud\n" +
		"fetch_timeout: 30s\n" +
		"holidays:\n" +
		"  - url: https://district.example/holidays.ics\n" +
		"    schedule: none\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/ehs/context.yaml", cfg.Document)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultRefresh, cfg.RefreshCron)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout.Duration)
	assert.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout.Duration)
	assert.Equal(t, []HolidayConfig{{URL: "https://district.example/holidays.ics", Schedule: "none"}}, cfg.Holidays)
	assert.False(t, cfg.Watch)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr assert.ErrorAssertionFunc
	}{{
		name:    "defaults",
		mutate:  func(*Config) {},
		wantErr: assert.NoError,
	}, {
		name:    "bad_timezone",
		mutate:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
		wantErr: assert.Error,
	}, {
		name:    "bad_refresh",
		mutate:  func(c *Config) { c.RefreshCron = "every day" },
		wantErr: assert.Error,
	}, {
		name: "holiday_both",
		mutate: func(c *Config) {
			c.Holidays = []HolidayConfig{{Path: "a.ics", URL: "https://x/a.ics"}}
		},
		wantErr: assert.Error,
	}, {
		name:    "holiday_neither",
		mutate:  func(c *Config) { c.Holidays = []HolidayConfig{{Schedule: "none"}} },
		wantErr: assert.Error,
	}, {
		name:    "auth_without_user",
		mutate:  func(c *Config) { c.BasicAuth = &BasicAuthConfig{Password: "x"} },
		wantErr: assert.Error,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(c)
			tc.wantErr(t, c.Validate())
		})
	}
}

func TestLocation(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, defaultTimezone, c.Location().String())

	c.Timezone = "nowhere"
	assert.Equal(t, time.Local, c.Location())
}
