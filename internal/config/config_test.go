package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"camrent/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("DefaultsAndEnv", func(t *testing.T) {
		t.Setenv("CAMRENT_TEST_TOKEN", "secret")
		path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "data", "camrent.db")+`
telegram:
  enabled: true
  bot_token: ${CAMRENT_TEST_TOKEN}
  digest_time: "18:30"
pricing:
  one_day: 200
items:
  - id: 1
    name: Fujifilm X-T30
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "secret", cfg.Telegram.BotToken)
		assert.Equal(t, int64(200), cfg.Pricing.OneDay)
		assert.Equal(t, int64(320), cfg.Pricing.TwoDays)
		assert.Equal(t, 3000, cfg.ServerPort())
		assert.Equal(t, time.Minute, cfg.CacheTTL())
		assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
		assert.Equal(t, []string{"*"}, cfg.CORSOrigins())
		assert.Equal(t, "Bookings", cfg.SheetName())
		hour, minute, ok, err := cfg.DigestTime()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 18, hour)
		assert.Equal(t, 30, minute)
		rps, burst := cfg.RateLimit()
		assert.Equal(t, 20.0, rps)
		assert.Equal(t, 40, burst)

		_, err = os.Stat(filepath.Join(dir, "data"))
		assert.NoError(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := map[string]string{
			"unknown driver": "database:\n  driver: oracle\n",
			"postgres dsn":   "database:\n  driver: postgres\n",
			"duplicate item": "database:\n  driver: memory\nitems:\n  - {id: 1, name: a}\n  - {id: 1, name: b}\n",
			"bad timezone":   "database:\n  driver: memory\ntimezone: Mars/Olympus\n",
			"telegram token": "database:\n  driver: memory\ntelegram:\n  enabled: true\n",
			"digest time":    "database:\n  driver: memory\ntelegram:\n  digest_time: \"6pm\"\n",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				path := writeFile(t, dir, "invalid.yaml", content)
				_, err := Load(path)
				assert.Error(t, err)
			})
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestLoadPromotions(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "promotions.yaml", `
promotions:
  - {id: none, label: No discount, kind: none, value: 0}
  - {id: student, label: Student, kind: percent, value: 15}
`)
	promos, err := LoadPromotions(path)
	require.NoError(t, err)
	require.Len(t, promos, 2)
	assert.Equal(t, pricing.KindPercent, promos[1].Kind)
	assert.Equal(t, int64(15), promos[1].Value)

	bad := writeFile(t, dir, "bad.yaml", `
promotions:
  - {id: x, kind: bogus, value: 1}
`)
	_, err = LoadPromotions(bad)
	assert.Error(t, err)

	empty := writeFile(t, dir, "empty.yaml", "promotions: []\n")
	_, err = LoadPromotions(empty)
	assert.Error(t, err)
}

func TestWatchPromotions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "promotions.yaml", "promotions:\n  - {id: none, kind: none}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []pricing.Promotion, 4)
	failures := make(chan error, 4)
	err := WatchPromotions(ctx, path, 10*time.Millisecond,
		func(p []pricing.Promotion) { updates <- p },
		func(err error) { failures <- err })
	require.NoError(t, err)

	first := <-updates
	assert.Len(t, first, 1)

	require.NoError(t, os.WriteFile(path, []byte("promotions:\n  - {id: none, kind: none}\n  - {id: vip, kind: amount, value: 50}\n"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case second := <-updates:
		assert.Len(t, second, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("promotions were not reloaded")
	}

	require.NoError(t, os.WriteFile(path, []byte("promotions:\n  - {id: x, kind: bogus}\n"), 0o644))
	later := future.Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("broken promotions file was not reported")
	}
}

func TestWatchPromotions_MissingFile(t *testing.T) {
	err := WatchPromotions(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), time.Second, func([]pricing.Promotion) {}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
