package keymap

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mod is a set of held modifier keys.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModAlt
	ModShift
	ModSuper
	// ModTab is Tab held as a drawing modifier (ellipse tool).
	ModTab
)

// Has reports whether every modifier in x is held.
func (m Mod) Has(x Mod) bool {
	return m&x == x
}

var modNames = []struct {
	mod  Mod
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModSuper, "Super"},
	{ModTab, "Tab"},
}

func (m Mod) String() string {
	var parts []string
	for _, mn := range modNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "+")
}

// Chord is a key plus the modifiers held with it. Key is the canonical
// lower-case key name: a single character such as "z" or "+", or a named
// key such as "escape", "up" or "f10".
type Chord struct {
	Mods Mod
	Key  string
}

func (c Chord) String() string {
	key := c.Key
	if utf8.RuneCountInString(key) == 1 {
		key = strings.ToUpper(key)
	} else if key != "" {
		key = strings.ToUpper(key[:1]) + key[1:]
	}
	if c.Mods == 0 {
		return key
	}
	return c.Mods.String() + "+" + key
}

var keyAliases = map[string]string{
	"esc":        "escape",
	"return":     "enter",
	"del":        "delete",
	"pgup":       "pageup",
	"pgdown":     "pagedown",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"plus":       "+",
	"minus":      "-",
	"equal":      "=",
	"equals":     "=",
	"underscore": "_",
	" ":          "space",
}

var modAliases = map[string]Mod{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"meta":    ModSuper,
	"tab":     ModTab,
}

// CanonicalKey lower-cases a key name and resolves aliases.
func CanonicalKey(key string) string {
	if key != " " {
		key = strings.ToLower(key)
	}
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

// ParseChord parses a binding such as "Ctrl+Shift+Z", "Escape" or "Ctrl++".
// Letter case in the key name is not significant; Shift must be spelled
// out.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("empty key binding")
	}

	var key, prefix string
	switch {
	case s == "+":
		key = "+"
	case strings.HasSuffix(s, "++"):
		key, prefix = "+", strings.TrimSuffix(s, "++")
	default:
		i := strings.LastIndex(s, "+")
		prefix, key = s[:max(i, 0)], s[i+1:]
	}
	if key == "" {
		return Chord{}, fmt.Errorf("key binding %q: missing key", s)
	}

	var c Chord
	if prefix != "" {
		for _, part := range strings.Split(prefix, "+") {
			m, ok := modAliases[strings.ToLower(strings.TrimSpace(part))]
			if !ok {
				return Chord{}, fmt.Errorf("key binding %q: unknown modifier %q", s, part)
			}
			c.Mods |= m
		}
	}
	c.Key = CanonicalKey(key)
	return c, nil
}

// EventChord builds the chord for a key event. An upper-case letter implies
// Shift, since terminals report Shift+z as "Z".
func EventChord(key string, mods Mod) Chord {
	if r, size := utf8.DecodeRuneInString(key); size == len(key) && unicode.IsUpper(r) {
		mods |= ModShift
	}
	return Chord{Mods: mods &^ ModTab, Key: CanonicalKey(key)}
}
