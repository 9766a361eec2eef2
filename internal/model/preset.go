package model

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CustomPresetPrefix = "custom-"
	DefaultPresetIcon  = "cup"
)

// CustomPreset is a user-defined quick-add shortcut.
type CustomPreset struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	AmountMl int    `json:"amount" yaml:"amount_ml"`
	Icon     string `json:"icon" yaml:"icon"`
}

func (p CustomPreset) Validate() error {
	if !strings.HasPrefix(p.ID, CustomPresetPrefix) {
		return fmt.Errorf("model: custom preset id must start with %q", CustomPresetPrefix)
	}
	if strings.TrimSpace(p.Label) == "" {
		return errors.New("model: preset label is required")
	}
	if p.AmountMl <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, p.AmountMl)
	}
	return nil
}

// PresetOption is a quick-add entry, built-in or custom.
type PresetOption struct {
	ID       string
	Label    string
	Beverage string
	AmountMl int
	Icon     string
	Custom   bool
}

var BuiltinPresets = []PresetOption{
	{ID: "cup200", Label: "Cup (200ml)", Beverage: DefaultBeverage, AmountMl: 200, Icon: "cup"},
	{ID: "bottle500", Label: "Bottle (500ml)", Beverage: DefaultBeverage, AmountMl: 500, Icon: "bottle-soda"},
	{ID: "mug300", Label: "Mug (300ml)", Beverage: DefaultBeverage, AmountMl: 300, Icon: "cup-outline"},
}

type Beverage struct {
	ID            string
	Name          string
	DefaultAmount int
	Icon          string
}

var Beverages = []Beverage{
	{ID: "water", Name: "water", DefaultAmount: 200, Icon: "cup-water"},
	{ID: "coffee", Name: "coffee", DefaultAmount: 150, Icon: "coffee-outline"},
	{ID: "soda", Name: "soda", DefaultAmount: 250, Icon: "bottle-soda-outline"},
}

func (p CustomPreset) Option() PresetOption {
	return PresetOption{
		ID:       p.ID,
		Label:    p.Label,
		Beverage: DefaultBeverage,
		AmountMl: p.AmountMl,
		Icon:     p.Icon,
		Custom:   true,
	}
}
