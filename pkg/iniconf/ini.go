// Package iniconf parses, merges, and atomically rewrites the ordered
// INI documents consumed by the game engine.
//
// The engine treats section and key names as case-sensitive and every value
// as an untyped string, so this package never coerces types. Merging is
// non-destructive: lines not named in a patch are preserved byte for byte,
// so manual operator edits survive an API write.
package iniconf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vein-tools/veind/pkg/errdefs"
)

// Patch is a partial section -> key -> value update merged into a File.
type Patch map[string]map[string]string

// Validate rejects patches whose names or values would change the
// document structure when written out: a newline smuggles arbitrary
// lines (including section headers) into the file, brackets corrupt the
// section header, and "=" inside a key shifts the key/value split. A
// file written from a validated patch always parses back.
func (p Patch) Validate() error {
	for name, keys := range p {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty section name", errdefs.ErrInvalidArgument)
		}
		if strings.ContainsAny(name, "[]\n\r") {
			return fmt.Errorf("%w: invalid section name %q", errdefs.ErrInvalidArgument, name)
		}
		for key, value := range keys {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("%w: empty key in section %q", errdefs.ErrInvalidArgument, name)
			}
			if strings.ContainsAny(key, "=\n\r") || strings.HasPrefix(strings.TrimSpace(key), "[") ||
				strings.HasPrefix(strings.TrimSpace(key), ";") || strings.HasPrefix(strings.TrimSpace(key), "#") {
				return fmt.Errorf("%w: invalid key %q in section %q", errdefs.ErrInvalidArgument, key, name)
			}
			if strings.ContainsAny(value, "\n\r") {
				return fmt.Errorf("%w: value for %q in section %q must not contain line breaks", errdefs.ErrInvalidArgument, key, name)
			}
		}
	}
	return nil
}

// File is an ordered INI document.
type File struct {
	Path string

	sections []*section

	// trailingNewline records whether the source document ended with "\n"
	// so an untouched document re-encodes to identical bytes.
	trailingNewline bool
}

type section struct {
	name string

	// headerLine is the raw "[name]" line; empty for the preamble
	// pseudo-section holding lines before the first header.
	headerLine string

	lines []iniLine
}

type iniLine struct {
	raw   string
	key   string
	value string
	isKV  bool
}

// Parse parses an ordered INI document. Lines before the first section
// header form a nameless preamble that is preserved verbatim. A key
// repeated within one section resolves to its last occurrence.
func Parse(data []byte) (*File, error) {
	f := &File{
		trailingNewline: len(data) == 0 || data[len(data)-1] == '\n',
	}

	content := strings.TrimSuffix(string(data), "\n")
	cur := &section{} // preamble
	for i, raw := range strings.Split(content, "\n") {
		if len(data) == 0 {
			break
		}
		trimmed := strings.TrimSpace(raw)

		if strings.HasPrefix(trimmed, "[") {
			if !strings.HasSuffix(trimmed, "]") {
				return nil, fmt.Errorf("%w: line %d: unterminated section header %q", errdefs.ErrInvalidArgument, i+1, raw)
			}
			name := trimmed[1 : len(trimmed)-1]
			if name == "" {
				return nil, fmt.Errorf("%w: line %d: empty section name", errdefs.ErrInvalidArgument, i+1)
			}
			if len(cur.lines) > 0 || cur.headerLine != "" {
				f.sections = append(f.sections, cur)
			}
			cur = &section{name: name, headerLine: raw}
			continue
		}

		line := iniLine{raw: raw}
		// comments and blank lines stay raw; everything with "=" is a pair
		if trimmed != "" && !strings.HasPrefix(trimmed, ";") && !strings.HasPrefix(trimmed, "#") {
			if idx := strings.Index(raw, "="); idx >= 0 {
				line.key = strings.TrimSpace(raw[:idx])
				line.value = raw[idx+1:]
				line.isKV = line.key != ""
			}
		}
		cur.lines = append(cur.lines, line)
	}
	if len(cur.lines) > 0 || cur.headerLine != "" {
		f.sections = append(f.sections, cur)
	}
	return f, nil
}

// Get returns the effective value of a key: the last occurrence within
// the named section.
func (f *File) Get(sectionName, key string) (string, bool) {
	for _, s := range f.sections {
		if s.name != sectionName {
			continue
		}
		for i := len(s.lines) - 1; i >= 0; i-- {
			if s.lines[i].isKV && s.lines[i].key == key {
				return s.lines[i].value, true
			}
		}
	}
	return "", false
}

// Sections returns the effective section -> key -> value view,
// duplicate keys already collapsed to their last occurrence.
func (f *File) Sections() map[string]map[string]string {
	out := make(map[string]map[string]string, len(f.sections))
	for _, s := range f.sections {
		if s.name == "" {
			continue
		}
		m, ok := out[s.name]
		if !ok {
			m = make(map[string]string)
			out[s.name] = m
		}
		for _, line := range s.lines {
			if line.isKV {
				m[line.key] = line.value
			}
		}
	}
	return out
}

// Apply merges a patch into the document. Patched keys overwrite their
// last occurrence in place or are appended at the section end; missing
// sections are appended at the document end. Sections and keys are
// applied in sorted order so the result is deterministic.
func (f *File) Apply(patch Patch) {
	sectionNames := make([]string, 0, len(patch))
	for name := range patch {
		sectionNames = append(sectionNames, name)
	}
	sort.Strings(sectionNames)

	for _, name := range sectionNames {
		s := f.findSection(name)
		if s == nil {
			s = &section{name: name, headerLine: "[" + name + "]"}
			f.sections = append(f.sections, s)
		}

		keys := make([]string, 0, len(patch[name]))
		for k := range patch[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			s.set(key, patch[name][key])
		}
	}
}

// findSection returns the last section with the given name; the engine
// resolves duplicated section headers the same way it resolves
// duplicated keys.
func (f *File) findSection(name string) *section {
	for i := len(f.sections) - 1; i >= 0; i-- {
		if f.sections[i].name == name {
			return f.sections[i]
		}
	}
	return nil
}

func (s *section) set(key, value string) {
	for i := len(s.lines) - 1; i >= 0; i-- {
		if s.lines[i].isKV && s.lines[i].key == key {
			s.lines[i] = iniLine{raw: key + "=" + value, key: key, value: value, isKV: true}
			return
		}
	}

	// append after the last non-blank line so trailing blank separators
	// stay at the section end
	insert := 0
	for i := len(s.lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(s.lines[i].raw) != "" {
			insert = i + 1
			break
		}
	}
	line := iniLine{raw: key + "=" + value, key: key, value: value, isKV: true}
	s.lines = append(s.lines[:insert], append([]iniLine{line}, s.lines[insert:]...)...)
}

// Encode serializes the document. A document that was parsed and never
// patched encodes to the original bytes.
func (f *File) Encode() []byte {
	var b strings.Builder
	first := true
	for _, s := range f.sections {
		if s.headerLine != "" {
			if !first {
				b.WriteString("\n")
			}
			b.WriteString(s.headerLine)
			first = false
		}
		for _, line := range s.lines {
			if !first {
				b.WriteString("\n")
			}
			b.WriteString(line.raw)
			first = false
		}
	}
	if !first && f.trailingNewline {
		b.WriteString("\n")
	}
	return []byte(b.String())
}
