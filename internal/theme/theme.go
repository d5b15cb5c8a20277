package theme

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "mixer-dark"

// Token represents a semantic color slot within the CLI.
type Token string

const (
	ColorTextPrimary Token = "text.primary"
	ColorTextMuted   Token = "text.muted"
	ColorBorder      Token = "border"
	ColorFocus       Token = "focus"
	ColorPrimary     Token = "primary"
	ColorPrimaryText Token = "primary.text"
	ColorSuccess     Token = "success"
	ColorDanger      Token = "danger"
	ColorDangerText  Token = "danger.text"
	ColorHighlight   Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "" && dark == "":
		return lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name        string
	DisplayName string
	Colors      map[Token]Color
}

// Color returns a color for the provided token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if c, ok := p.Colors[token]; ok {
		return c
	}
	return fallbackColor(token)
}

// Adaptive returns the lipgloss adaptive color for the provided token.
func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to the requested token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

type contextKey struct{}

var (
	registryOnce sync.Once
	registryMu   sync.RWMutex
	palettes     map[string]Palette
	current      Palette
	defaultPal   Palette
	themeKey     contextKey
)

// ContextWithPalette stores the palette on the context.
func ContextWithPalette(ctx context.Context, p Palette) context.Context {
	return context.WithValue(ctx, themeKey, p)
}

// FromContext returns the palette stored on the context or the current palette.
func FromContext(ctx context.Context) Palette {
	if ctx == nil {
		return Current()
	}
	if p, ok := ctx.Value(themeKey).(Palette); ok {
		return p
	}
	return Current()
}

// Available returns the list of registered theme IDs (sorted).
func Available() []string {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the palette with the provided name.
func Get(name string) (Palette, bool) {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := palettes[sanitizeName(name)]
	return p, ok
}

// SetCurrent sets the active palette. An empty name selects the default.
func SetCurrent(name string) error {
	ensureRegistry()

	name = sanitizeName(name)
	if name == "" {
		name = DefaultName
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown color theme %q, must be one of %v", name, sortedKeys())
	}
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	ensureRegistry()

	registryMu.RLock()
	defer registryMu.RUnlock()

	return current
}

func ensureRegistry() {
	registryOnce.Do(func() {
		registryMu.Lock()
		defer registryMu.Unlock()

		palettes = make(map[string]Palette)
		for _, s := range builtinSeeds() {
			p := s.palette()
			palettes[p.Name] = p
		}
		defaultPal = palettes[DefaultName]
		current = defaultPal
	})
}

// sortedKeys expects registryMu to be held
func sortedKeys() []string {
	keys := make([]string, 0, len(palettes))
	for k := range palettes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fallbackColor(token Token) Color {
	if c, ok := defaultPal.Colors[token]; ok {
		return c
	}
	return Color{Light: "#000000", Dark: "#FFFFFF"}
}

func sanitizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// seed holds the handful of base colors a palette is derived from
type seed struct {
	name        string
	displayName string
	fg, bg      string
	primary     string
	success     string
	danger      string
}

func builtinSeeds() []seed {
	return []seed{
		{
			name: "mixer-dark", displayName: "Mixer Dark",
			fg: "#F2F2F7", bg: "#16161E",
			primary: "#8B5CF6", success: "#34D399", danger: "#F87171",
		},
		{
			name: "mixer-light", displayName: "Mixer Light",
			fg: "#1C1B22", bg: "#FFFFFF",
			primary: "#6D28D9", success: "#047857", danger: "#B91C1C",
		},
		{
			name: "sunset", displayName: "Sunset",
			fg: "#FFF4E6", bg: "#2B1B2F",
			primary: "#FF8C42", success: "#9BE564", danger: "#FF3C38",
		},
	}
}

func (s seed) palette() Palette {
	dark := isDark(s.bg)
	soften := darkenHex
	if dark {
		soften = lightenHex
	}
	return Palette{
		Name:        s.name,
		DisplayName: s.displayName,
		Colors: map[Token]Color{
			ColorTextPrimary: singleColor(s.fg),
			ColorTextMuted:   singleColor(blendHex(s.fg, s.bg, 0.45)),
			ColorBorder:      singleColor(soften(s.bg, 0.25)),
			ColorFocus:       singleColor(soften(s.primary, 0.2)),
			ColorPrimary:     singleColor(s.primary),
			ColorPrimaryText: singleColor(contrastColor(s.primary)),
			ColorSuccess:     singleColor(s.success),
			ColorDanger:      singleColor(s.danger),
			ColorDangerText:  singleColor(contrastColor(s.danger)),
			ColorHighlight:   singleColor(soften(s.bg, 0.1)),
		},
	}
}

func singleColor(hex string) Color {
	h := normalizeHex(hex)
	return Color{Light: h, Dark: h}
}

func normalizeHex(hex string) string {
	trimmed := strings.TrimSpace(strings.TrimPrefix(hex, "#"))
	switch len(trimmed) {
	case 0:
		return ""
	case 3:
		var b strings.Builder
		b.WriteString("#")
		for _, r := range trimmed {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return strings.ToUpper(b.String())
	default:
		if len(trimmed) > 6 {
			trimmed = trimmed[:6]
		}
		return "#" + strings.ToUpper(trimmed)
	}
}

func isDark(hex string) bool {
	c, err := colorful.Hex(normalizeHex(hex))
	if err != nil {
		return true
	}
	return relativeLuminance(c) < 0.5
}

func contrastColor(hex string) string {
	c, err := colorful.Hex(normalizeHex(hex))
	if err != nil {
		return "#121418"
	}
	if relativeLuminance(c) > 0.55 {
		return "#121418"
	}
	return "#F8F8F8"
}

func blendHex(from, to string, amount float64) string {
	a, err := colorful.Hex(normalizeHex(from))
	if err != nil {
		return normalizeHex(from)
	}
	b, err := colorful.Hex(normalizeHex(to))
	if err != nil {
		return normalizeHex(from)
	}
	return strings.ToUpper(a.BlendLab(b, clampFloat(amount, 0, 1)).Clamped().Hex())
}

func lightenHex(hex string, amount float64) string {
	return blendHex(hex, "#FFFFFF", amount)
}

func darkenHex(hex string, amount float64) string {
	return blendHex(hex, "#000000", amount)
}

func clampFloat(val, minVal, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func relativeLuminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
