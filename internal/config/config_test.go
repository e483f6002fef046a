package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"coursecal/internal/model"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "coursecal.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursecal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: Asia/Tokyo
default_view: fortnight
filters:
  exams: true
ics:
  - id: family
    url: https://calendar.example.com/family.ics
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Asia/Tokyo", cfg.Timezone)
	require.Equal(t, "month", cfg.DefaultView)
	require.Equal(t, "127.0.0.1:8080", cfg.Listen)
	require.Equal(t, 5000, cfg.MaxOccurrencesPerTemplate)
	require.True(t, cfg.Filters.Exams)
	require.False(t, cfg.Filters.Classes)
	require.True(t, cfg.Filters.Allows(model.CategoryExam))
	require.Len(t, cfg.ICS, 1)
	require.Equal(t, "Asia/Tokyo", cfg.Location().String())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"timezone":   "timezone: Mars/Olympus\n",
		"listen":     "listen: not-an-address\n",
		"ics url":    "ics:\n  - id: x\n    url: not a url\n",
		"log format": "log:\n  format: xml\n",
		"upcoming":   "upcoming_days: 1000\n",
		"bad yaml":   "listen: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "coursecal.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursecal.yaml")

	cfg := DefaultConfig()
	cfg.HideCancelled = true
	cfg.UpcomingDays = 7
	cfg.Filters = cfg.Filters.With(model.CategoryPersonal, false)
	cfg.BasicAuth = &BasicAuthConfig{Username: "me", Password: "secret"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	require.Error(t, Save("", DefaultConfig()))
	require.Error(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil))
}
