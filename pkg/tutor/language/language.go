// Package language answers whether a language name is one the tutor can
// hold a conversation in, and supplies the canned opening lines for it.
//
// Names are display names such as "Spanish (Spain)" or "English (US)".
// Lookups are exact and case sensitive.
package language

import (
	"slices"
	"strings"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
)

// Language is one supported language.
type Language struct {
	Name string `json:"name"`
	// Code is the ISO 639-1 code. Regional variants share it.
	Code string `json:"code"`
	// Greeting is an A1-level "hello, how are you".
	Greeting string `json:"greeting"`
	// TopicQuestion asks the student what they would like to talk about.
	TopicQuestion string `json:"topic_question"`
}

// Checker reports whether a language name is supported.
type Checker interface {
	IsSupported(name string) bool
}

// Table is an immutable set of languages keyed by display name.
type Table struct {
	byName map[string]Language
	names  []string
}

// NewTable indexes langs. A later entry with the same name replaces an
// earlier one.
func NewTable(langs ...Language) *Table {
	t := &Table{byName: make(map[string]Language, len(langs))}
	for _, l := range langs {
		if _, dup := t.byName[l.Name]; !dup {
			t.names = append(t.names, l.Name)
		}
		t.byName[l.Name] = l
	}
	slices.Sort(t.names)
	return t
}

// Default is the built-in table.
var Default = NewTable(builtin...)

// IsSupported implements Checker.
func (t *Table) IsSupported(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Lookup returns the entry for name.
func (t *Table) Lookup(name string) (Language, bool) {
	l, ok := t.byName[name]
	return l, ok
}

// Supported returns every name in the table, sorted.
func (t *Table) Supported() []string {
	return slices.Clone(t.names)
}

// Validate returns a ValidationError when name is empty or unknown.
func (t *Table) Validate(name string) error {
	_, err := t.get(name)
	return err
}

// Code returns the ISO 639-1 code for name.
func (t *Table) Code(name string) (string, error) {
	l, err := t.get(name)
	return l.Code, err
}

// Greeting returns the opening greeting for name.
func (t *Table) Greeting(name string) (string, error) {
	l, err := t.get(name)
	return l.Greeting, err
}

// TopicQuestion returns the "what shall we talk about" question for name.
func (t *Table) TopicQuestion(name string) (string, error) {
	l, err := t.get(name)
	return l.TopicQuestion, err
}

func (t *Table) get(name string) (Language, error) {
	if strings.TrimSpace(name) == "" {
		return Language{}, fgerrors.Validation("language", "language cannot be empty")
	}
	l, ok := t.byName[name]
	if !ok {
		return Language{}, fgerrors.Validation("language", "language %q is not supported, supported: %s",
			name, strings.Join(t.names, ", "))
	}
	return l, nil
}

// IsSupported reports whether Default knows name.
func IsSupported(name string) bool { return Default.IsSupported(name) }

// Validate checks name against Default.
func Validate(name string) error { return Default.Validate(name) }

// Supported lists Default's names, sorted.
func Supported() []string { return Default.Supported() }

// Code looks up name's ISO code in Default.
func Code(name string) (string, error) { return Default.Code(name) }

// Greeting looks up name's greeting in Default.
func Greeting(name string) (string, error) { return Default.Greeting(name) }

// TopicQuestion looks up name's topic question in Default.
func TopicQuestion(name string) (string, error) { return Default.TopicQuestion(name) }
