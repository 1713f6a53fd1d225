package ansi

import (
	"sort"
	"strings"
)

var namedPalettes = map[string]*Palette{
	"default":        &PaletteDefault,
	"nord":           &PaletteNord,
	"dracula":        &PaletteDracula,
	"gruvbox":        &PaletteGruvbox,
	"tokyo-night":    &PaletteTokyoNight,
	"solarized-dark": &PaletteSolarizedDark,
	"one-dark":       &PaletteOneDark,
	"synthwave-84":   &PaletteSynthwave84,
	"kanagawa":       &PaletteKanagawa,
	"github-light":   &PaletteGithubLight,
}

var paletteAliases = map[string]string{
	"doom-gruvbox": "gruvbox",
	"doomgruvbox":  "gruvbox",
	"doom-dracula": "dracula",
	"doomdracula":  "dracula",
	"doom-nord":    "nord",
	"doomnord":     "nord",

	"tokyonight":    "tokyo-night",
	"solarizeddark": "solarized-dark",
	"solarized":     "solarized-dark",
	"onedark":       "one-dark",
	"synthwave84":   "synthwave-84",
	"githublight":   "github-light",
}

// PaletteByName resolves a built-in palette by its canonical name.
// Names are case-insensitive and support compatibility aliases; unknown names
// resolve to PaletteDefault.
func PaletteByName(name string) *Palette {
	p, _ := LookupPalette(name)
	return p
}

// LookupPalette is PaletteByName reporting whether name was known.
func LookupPalette(name string) (*Palette, bool) {
	normalized := normalizePaletteName(name)
	if normalized == "" {
		return &PaletteDefault, false
	}
	if canonical, ok := paletteAliases[normalized]; ok {
		normalized = canonical
	}
	if palette, ok := namedPalettes[normalized]; ok && palette != nil {
		return palette, true
	}
	return &PaletteDefault, false
}

// AvailablePaletteNames returns canonical built-in palette names in sorted order.
func AvailablePaletteNames() []string {
	names := make([]string, 0, len(namedPalettes))
	for name := range namedPalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizePaletteName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if strings.HasPrefix(s, "palette-") {
		s = strings.TrimPrefix(s, "palette-")
	} else if strings.HasPrefix(s, "palette") {
		s = strings.TrimPrefix(s, "palette")
		s = strings.TrimLeft(s, "-")
	}
	return s
}
