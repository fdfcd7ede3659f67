package template

// MissingAction specifies how Render handles a variable absent from vars.
type MissingAction int

const (
	// MissingKeep leaves the ${name} placeholder in the output. Default.
	MissingKeep MissingAction = iota

	// MissingEmpty substitutes an empty string.
	MissingEmpty

	// MissingError fails the render with an UndefinedVariableError.
	MissingError
)

// Option configures Parse.
type Option func(*Template)

// WithMissingAction sets how missing variables are handled.
func WithMissingAction(action MissingAction) Option {
	return func(t *Template) {
		t.missing = action
	}
}
