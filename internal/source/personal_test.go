package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coursecal/internal/model"
)

func openStore(t *testing.T) (*PersonalStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personal.yaml")
	s, err := OpenPersonalStore(path)
	require.NoError(t, err)
	return s, path
}

func gym(start time.Time) model.EventTemplate {
	return model.EventTemplate{
		Title: "Gym",
		Start: start,
		End:   start.Add(time.Hour),
	}
}

func TestPersonalCreateAndReopen(t *testing.T) {
	s, path := openStore(t)
	require.Empty(t, s.List())

	start := time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC)
	created, err := s.Create(gym(start))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(created.ID, "event_"))
	require.Equal(t, model.CategoryPersonal, created.Category)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenPersonalStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "Gym", got.Title)
	require.True(t, got.Start.Equal(start))
	require.Equal(t, model.CategoryPersonal, got.Category)
}

func TestPersonalCreateKeepsExplicitCategory(t *testing.T) {
	s, _ := openStore(t)
	ev := gym(time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC))
	ev.Category = model.CategoryExam

	created, err := s.Create(ev)
	require.NoError(t, err)
	require.Equal(t, model.CategoryExam, created.Category)
}

func TestPersonalCreateRejectsInvertedTimes(t *testing.T) {
	s, _ := openStore(t)
	start := time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC)
	ev := gym(start)
	ev.End = start.Add(-time.Minute)

	_, err := s.Create(ev)
	require.ErrorIs(t, err, ErrInvalidRow)
	require.Empty(t, s.List())
}

func TestPersonalUpdate(t *testing.T) {
	s, _ := openStore(t)
	start := time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC)
	ev := gym(start)
	ev.Recurrence = &model.Recurrence{Rule: model.FrequencyWeekly}
	created, err := s.Create(ev)
	require.NoError(t, err)

	title := "Swimming"
	loc := "Pool"
	updated, err := s.Update(created.ID, PersonalPatch{Title: &title, Location: &loc})
	require.NoError(t, err)
	require.Equal(t, "Swimming", updated.Title)
	require.Equal(t, "Pool", updated.Location)
	require.NotNil(t, updated.Recurrence)
	require.True(t, updated.Start.Equal(start))

	updated, err = s.Update(created.ID, PersonalPatch{ClearRecurrence: true})
	require.NoError(t, err)
	require.Nil(t, updated.Recurrence)

	earlier := start.Add(-2 * time.Hour)
	_, err = s.Update(created.ID, PersonalPatch{End: &earlier})
	require.ErrorIs(t, err, ErrInvalidRow)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "Swimming", got.Title)
	require.True(t, got.End.Equal(start.Add(time.Hour)))

	_, err = s.Update("event_missing", PersonalPatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPersonalDelete(t *testing.T) {
	s, path := openStore(t)
	a, err := s.Create(gym(time.Date(2025, 10, 1, 18, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	b, err := s.Create(gym(time.Date(2025, 10, 2, 18, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(a.ID))
	require.NoError(t, s.Delete("event_missing"))

	_, err = s.Get(a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	reopened, err := OpenPersonalStore(path)
	require.NoError(t, err)
	list := reopened.List()
	require.Len(t, list, 1)
	require.Equal(t, b.ID, list[0].ID)
}

func TestPersonalListInRange(t *testing.T) {
	s, _ := openStore(t)
	for d := 1; d <= 5; d++ {
		_, err := s.Create(gym(time.Date(2025, 10, d, 18, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
	}

	got := s.ListInRange(
		time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 4, 18, 0, 0, 0, time.UTC),
	)
	require.Len(t, got, 3)

	require.Empty(t, s.ListInRange(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	))
}

func TestOpenPersonalStoreErrors(t *testing.T) {
	_, err := OpenPersonalStore("")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "personal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events: ["), 0o600))
	_, err = OpenPersonalStore(path)
	require.Error(t, err)
}
