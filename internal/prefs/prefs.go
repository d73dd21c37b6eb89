// Package prefs stores the display preferences as plain strings in the
// theme and fontSize slots.
package prefs

import (
	"context"

	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/internal/logger"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
)

var ErrInvalidPreference = errors.New("invalid preference")

const (
	DefaultTheme    = schema.ThemeLight
	DefaultFontSize = schema.FontMedium
)

// Snapshot is both preferences at once, as served by the API.
type Snapshot struct {
	Theme    schema.Theme    `json:"theme"`
	FontSize schema.FontSize `json:"fontSize"`
}

type Preferences struct {
	slots engine.SlotStore
	log   *logger.Logger
}

func New(slots engine.SlotStore, log *logger.Logger) *Preferences {
	if log == nil {
		log = logger.Nop()
	}
	return &Preferences{slots: slots, log: log.With("component", "Preferences")}
}

// Theme returns the stored theme. A missing or unrecognized value reads as
// the default.
func (p *Preferences) Theme(ctx context.Context) (schema.Theme, error) {
	v, err := p.load(ctx, pkgengine.SlotTheme)
	if err != nil {
		return DefaultTheme, err
	}
	if validTheme(schema.Theme(v)) {
		return schema.Theme(v), nil
	}
	return DefaultTheme, nil
}

func (p *Preferences) SetTheme(ctx context.Context, t schema.Theme) error {
	if !validTheme(t) {
		return errors.Wrapf(ErrInvalidPreference, "theme %q", string(t))
	}
	return p.save(ctx, pkgengine.SlotTheme, string(t))
}

// ToggleTheme flips between light and dark and returns the new theme.
func (p *Preferences) ToggleTheme(ctx context.Context) (schema.Theme, error) {
	cur, err := p.Theme(ctx)
	if err != nil {
		return cur, err
	}
	next := schema.ThemeDark
	if cur == schema.ThemeDark {
		next = schema.ThemeLight
	}
	if err := p.SetTheme(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

func (p *Preferences) FontSize(ctx context.Context) (schema.FontSize, error) {
	v, err := p.load(ctx, pkgengine.SlotFontSize)
	if err != nil {
		return DefaultFontSize, err
	}
	if validFontSize(schema.FontSize(v)) {
		return schema.FontSize(v), nil
	}
	return DefaultFontSize, nil
}

func (p *Preferences) SetFontSize(ctx context.Context, f schema.FontSize) error {
	if !validFontSize(f) {
		return errors.Wrapf(ErrInvalidPreference, "font size %q", string(f))
	}
	return p.save(ctx, pkgengine.SlotFontSize, string(f))
}

func (p *Preferences) Snapshot(ctx context.Context) (Snapshot, error) {
	theme, err := p.Theme(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	size, err := p.FontSize(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Theme: theme, FontSize: size}, nil
}

func (p *Preferences) load(ctx context.Context, name string) (string, error) {
	data, err := p.slots.Load(ctx, name)
	if errors.Is(err, pkgengine.ErrSlotNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "load %s", name)
	}
	return string(data), nil
}

func (p *Preferences) save(ctx context.Context, name, value string) error {
	if err := p.slots.Save(ctx, name, []byte(value)); err != nil {
		return errors.Wrapf(pkgengine.ErrPersistence, "save %s: %v", name, err)
	}
	p.log.Debug("Preference saved", "slot", name, "value", value)
	return nil
}

func validTheme(t schema.Theme) bool {
	return t == schema.ThemeLight || t == schema.ThemeDark
}

func validFontSize(f schema.FontSize) bool {
	switch f {
	case schema.FontSmall, schema.FontMedium, schema.FontLarge:
		return true
	}
	return false
}
