package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"coursecal/internal/config"
	"coursecal/internal/model"
)

// PersonalPatch carries a partial update; nil fields are left unchanged.
type PersonalPatch struct {
	Title       *string           `json:"title,omitempty"`
	Start       *time.Time        `json:"start,omitempty"`
	End         *time.Time        `json:"end,omitempty"`
	AllDay      *bool             `json:"all_day,omitempty"`
	Category    *model.Category   `json:"category,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Description *string           `json:"description,omitempty"`
	Recurrence  *model.Recurrence `json:"recurrence,omitempty"`
	// ClearRecurrence turns a recurring event into a one-off.
	ClearRecurrence bool `json:"clear_recurrence,omitempty"`
}

type personalFile struct {
	Events []model.EventTemplate `yaml:"events"`
}

// PersonalStore keeps the user's own calendar entries in a YAML file.
// Every mutation rewrites the file atomically.
type PersonalStore struct {
	path string

	mu     sync.RWMutex
	events []model.EventTemplate
}

// OpenPersonalStore loads path, starting empty if it does not exist yet.
func OpenPersonalStore(path string) (*PersonalStore, error) {
	if path == "" {
		return nil, errors.New("personal store path is empty")
	}
	s := &PersonalStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("personal: read %s: %w", path, err)
	}

	var f personalFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("personal: decode %s: %w", path, err)
	}
	s.events = validRows(f.Events, "personal", func(t model.EventTemplate) string { return t.ID })
	return s, nil
}

func (s *PersonalStore) persist(events []model.EventTemplate) error {
	data, err := yaml.Marshal(personalFile{Events: events})
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(s.path, data, ".coursecal-personal-*.tmp")
}

// List returns a copy of every stored event.
func (s *PersonalStore) List() []model.EventTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.EventTemplate(nil), s.events...)
}

// ListInRange returns events whose start lies in [start, end].
func (s *PersonalStore) ListInRange(start, end time.Time) []model.EventTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EventTemplate, 0)
	for _, ev := range s.events {
		if !ev.Start.Before(start) && !ev.Start.After(end) {
			out = append(out, ev)
		}
	}
	return out
}

func (s *PersonalStore) find(id string) int {
	for i, ev := range s.events {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

func (s *PersonalStore) Get(id string) (model.EventTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.find(id)
	if i < 0 {
		return model.EventTemplate{}, fmt.Errorf("personal event %q: %w", id, ErrNotFound)
	}
	return s.events[i], nil
}

// Create assigns a fresh id, validates and stores ev. Events without an
// explicit category become personal entries.
func (s *PersonalStore) Create(ev model.EventTemplate) (model.EventTemplate, error) {
	ev.ID = "event_" + uuid.NewString()
	if ev.Category == model.CategoryClass {
		ev.Category = model.CategoryPersonal
	}
	if err := validate.Struct(ev); err != nil {
		return model.EventTemplate{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]model.EventTemplate(nil), s.events...), ev)
	if err := s.persist(next); err != nil {
		return model.EventTemplate{}, err
	}
	s.events = next
	return ev, nil
}

// Update applies patch to the event with the given id.
func (s *PersonalStore) Update(id string, patch PersonalPatch) (model.EventTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return model.EventTemplate{}, fmt.Errorf("personal event %q: %w", id, ErrNotFound)
	}

	ev := s.events[i]
	if patch.Title != nil {
		ev.Title = *patch.Title
	}
	if patch.Start != nil {
		ev.Start = *patch.Start
	}
	if patch.End != nil {
		ev.End = *patch.End
	}
	if patch.AllDay != nil {
		ev.AllDay = *patch.AllDay
	}
	if patch.Category != nil {
		ev.Category = *patch.Category
	}
	if patch.Location != nil {
		ev.Location = *patch.Location
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if patch.Recurrence != nil {
		r := *patch.Recurrence
		ev.Recurrence = &r
	}
	if patch.ClearRecurrence {
		ev.Recurrence = nil
	}
	if err := validate.Struct(ev); err != nil {
		return model.EventTemplate{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}

	next := append([]model.EventTemplate(nil), s.events...)
	next[i] = ev
	if err := s.persist(next); err != nil {
		return model.EventTemplate{}, err
	}
	s.events = next
	return ev, nil
}

// Delete removes the event with the given id. Deleting an unknown id is
// not an error.
func (s *PersonalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return nil
	}
	next := append(append([]model.EventTemplate(nil), s.events[:i]...), s.events[i+1:]...)
	if err := s.persist(next); err != nil {
		return err
	}
	s.events = next
	return nil
}
