package dialogue

import (
	"errors"
	"fmt"
)

const (
	// MaxOptions is the largest menu a select control can carry.
	MaxOptions = 25
	// MaxActions is the number of buttons that fit in one row.
	MaxActions = 5

	// DefaultOptionIcon prefixes every option label.
	DefaultOptionIcon = "🎬"
	// DefaultActionIcon decorates every action button.
	DefaultActionIcon = "📣"
)

var (
	// ErrNoOptions is returned when a selection prompt would have nothing to choose from.
	ErrNoOptions = errors.New("dialogue: no options")
	// ErrNoActions is returned when a catalog has no action buttons.
	ErrNoActions = errors.New("dialogue: no actions")
)

// Option is one choice of the selection menu.
type Option struct {
	Label string
	Value string
	Icon  string
}

// Action is one button of the action row; Name is both its label and its identifier.
type Action struct {
	Name string
	Icon string
}

// Limits bound the encoded size, in bytes, of the identifiers a platform
// carries in its controls. Zero leaves a field unchecked.
type Limits struct {
	OptionValue int
	ActionName  int
}

// Catalog is the static data a dialogue is built from.
type Catalog struct {
	Options []Option
	Actions []Action
}

// DefaultCatalog returns the five directors and five set commands.
func DefaultCatalog() Catalog {
	directors := []string{
		"Steven Spielberg",
		"Stanley Kubrick",
		"Martin Scorsese",
		"Alfred Hitchcock",
		"Quentin Tarantino",
	}
	commands := []string{"action", "cut", "print it", "another take", "that's a wrap"}

	c := Catalog{
		Options: make([]Option, 0, len(directors)),
		Actions: make([]Action, 0, len(commands)),
	}
	for _, d := range directors {
		c.Options = append(c.Options, Option{Label: d, Value: d, Icon: DefaultOptionIcon})
	}
	for _, name := range commands {
		c.Actions = append(c.Actions, Action{Name: name, Icon: DefaultActionIcon})
	}
	return c
}

// Validate reports the first structural problem of the catalog.
func (c Catalog) Validate() error {
	if len(c.Options) == 0 {
		return ErrNoOptions
	}
	if len(c.Actions) == 0 {
		return ErrNoActions
	}
	if len(c.Options) > MaxOptions {
		return fmt.Errorf("dialogue: %d options exceed the limit of %d", len(c.Options), MaxOptions)
	}
	if len(c.Actions) > MaxActions {
		return fmt.Errorf("dialogue: %d actions exceed the limit of %d", len(c.Actions), MaxActions)
	}

	values := make(map[string]struct{}, len(c.Options))
	for i, o := range c.Options {
		if o.Value == "" {
			return fmt.Errorf("dialogue: option %d has an empty value", i)
		}
		if _, dup := values[o.Value]; dup {
			return fmt.Errorf("dialogue: duplicate option value %q", o.Value)
		}
		values[o.Value] = struct{}{}
	}

	names := make(map[string]struct{}, len(c.Actions))
	for i, a := range c.Actions {
		if a.Name == "" {
			return fmt.Errorf("dialogue: action %d has an empty name", i)
		}
		if _, dup := names[a.Name]; dup {
			return fmt.Errorf("dialogue: duplicate action %q", a.Name)
		}
		names[a.Name] = struct{}{}
	}
	return nil
}

// CheckLimits reports the first option value or action name too long for l.
func (c Catalog) CheckLimits(l Limits) error {
	if l.OptionValue > 0 {
		for _, o := range c.Options {
			if len(o.Value) > l.OptionValue {
				return fmt.Errorf("dialogue: option value %q is %d bytes, limit %d", o.Value, len(o.Value), l.OptionValue)
			}
		}
	}
	if l.ActionName > 0 {
		for _, a := range c.Actions {
			if len(a.Name) > l.ActionName {
				return fmt.Errorf("dialogue: action %q is %d bytes, limit %d", a.Name, len(a.Name), l.ActionName)
			}
		}
	}
	return nil
}
