package template

import (
	"fmt"
	"slices"
	"strings"
)

// Template is a parsed text with ${name} placeholders.
// A literal "${" is written as "$${". Template is immutable and safe
// for concurrent Render calls.
type Template struct {
	name     string
	segments []segment
	vars     []string
	missing  MissingAction
}

// segment is either literal text or, when isVar is set, a variable name.
type segment struct {
	text  string
	isVar bool
}

// Parse compiles text. Names must start with a letter or underscore and
// contain only letters, digits and underscores.
//
// Example:
//
//	tmpl, err := template.Parse("greeting", "Hola ${student_name}", template.WithMissingAction(template.MissingError))
func Parse(name, text string, opts ...Option) (*Template, error) {
	t := &Template{name: name, missing: MissingKeep}
	for _, opt := range opts {
		opt(t)
	}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], "$${"):
			lit.WriteString("${")
			i += 3
		case strings.HasPrefix(text[i:], "${"):
			end := strings.IndexByte(text[i+2:], '}')
			if end < 0 {
				return nil, &SyntaxError{Template: name, Offset: i, Msg: "unterminated placeholder"}
			}
			varName := text[i+2 : i+2+end]
			if !validName(varName) {
				return nil, &SyntaxError{Template: name, Offset: i, Msg: fmt.Sprintf("invalid variable name %q", varName)}
			}
			flush()
			t.segments = append(t.segments, segment{text: varName, isVar: true})
			if !slices.Contains(t.vars, varName) {
				t.vars = append(t.vars, varName)
			}
			i += 3 + end
		default:
			lit.WriteByte(text[i])
			i++
		}
	}
	flush()
	slices.Sort(t.vars)
	return t, nil
}

// MustParse is Parse for package-level templates; it panics on error.
func MustParse(name, text string, opts ...Option) *Template {
	t, err := Parse(name, text, opts...)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return t
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Name returns the name given to Parse.
func (t *Template) Name() string { return t.name }

// Variables returns the distinct placeholder names, sorted.
func (t *Template) Variables() []string { return slices.Clone(t.vars) }

// Render substitutes vars, formatting values with %v. Missing variables
// follow the template's MissingAction; only MissingError produces an
// error, listing every missing name.
func (t *Template) Render(vars map[string]any) (string, error) {
	var b strings.Builder
	var missing []string

	for _, seg := range t.segments {
		if !seg.isVar {
			b.WriteString(seg.text)
			continue
		}
		if val, ok := vars[seg.text]; ok {
			fmt.Fprintf(&b, "%v", val)
			continue
		}
		switch t.missing {
		case MissingEmpty:
		case MissingError:
			if !slices.Contains(missing, seg.text) {
				missing = append(missing, seg.text)
			}
		default:
			b.WriteString("${" + seg.text + "}")
		}
	}

	if len(missing) > 0 {
		return "", &UndefinedVariableError{Template: t.name, Names: missing}
	}
	return b.String(), nil
}

// Expand parses and renders s in one step, keeping unknown placeholders.
// Malformed input is returned unchanged.
func Expand(s string, vars map[string]any) string {
	t, err := Parse("", s)
	if err != nil {
		return s
	}
	out, _ := t.Render(vars)
	return out
}

// UndefinedVariableError is returned by Render under MissingError.
type UndefinedVariableError struct {
	Template string
	Names    []string
}

func (e *UndefinedVariableError) Error() string {
	prefix := "template"
	if e.Template != "" {
		prefix = "template " + e.Template
	}
	if len(e.Names) == 1 {
		return fmt.Sprintf("%s: undefined variable: %s", prefix, e.Names[0])
	}
	return fmt.Sprintf("%s: undefined variables: %s", prefix, strings.Join(e.Names, ", "))
}

// SyntaxError reports malformed placeholder syntax.
type SyntaxError struct {
	Template string
	Offset   int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %s: offset %d: %s", e.Template, e.Offset, e.Msg)
}
