package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/hydrate/internal/model"
)

var ErrInvalidLabel = errors.New("store: preset label is required")

func (s *Store) CustomPresets() []model.CustomPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CustomPreset(nil), s.presets...)
}

// AddPreset stores a quick-add shortcut. The label is trimmed and the icon
// defaults to a cup.
func (s *Store) AddPreset(label string, amountMl int, icon string) (model.CustomPreset, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return model.CustomPreset{}, ErrInvalidLabel
	}
	if amountMl <= 0 {
		return model.CustomPreset{}, fmt.Errorf("%w: %d", model.ErrInvalidAmount, amountMl)
	}
	icon = strings.TrimSpace(icon)
	if icon == "" {
		icon = model.DefaultPresetIcon
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.uniqueIDLocked(model.CustomPresetPrefix, func(id string) bool { return s.presetIndexLocked(id) >= 0 })
	if err != nil {
		return model.CustomPreset{}, err
	}
	preset := model.CustomPreset{ID: id, Label: label, AmountMl: amountMl, Icon: icon}
	s.presets = append(s.presets[:len(s.presets):len(s.presets)], preset)
	s.persistLocked(KeyPresets, s.presets)
	return preset, nil
}

func (s *Store) RemovePreset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.presetIndexLocked(id)
	if idx < 0 {
		return false
	}
	next := make([]model.CustomPreset, 0, len(s.presets)-1)
	next = append(next, s.presets[:idx]...)
	next = append(next, s.presets[idx+1:]...)
	s.presets = next
	s.persistLocked(KeyPresets, s.presets)
	return true
}

func (s *Store) presetIndexLocked(id string) int {
	for i := range s.presets {
		if s.presets[i].ID == id {
			return i
		}
	}
	return -1
}

// Presets lists the built-in quick-add options followed by custom presets.
func (s *Store) Presets() []model.PresetOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PresetOption, 0, len(model.BuiltinPresets)+len(s.presets))
	out = append(out, model.BuiltinPresets...)
	for _, preset := range s.presets {
		out = append(out, preset.Option())
	}
	return out
}

// PresetByID finds a built-in or custom preset.
func (s *Store) PresetByID(id string) (model.PresetOption, bool) {
	for _, option := range s.Presets() {
		if option.ID == id {
			return option, true
		}
	}
	return model.PresetOption{}, false
}
