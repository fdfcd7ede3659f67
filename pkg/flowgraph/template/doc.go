/*
Package template fills ${name} placeholders in prompt text.

Templates are parsed once, usually at package init, and rendered per
request:

	var greeting = template.MustParse("greeting",
	    "You are a ${level} ${language} tutor.",
	    template.WithMissingAction(template.MissingError))

	text, err := greeting.Render(map[string]any{"level": "B2", "language": "Spanish"})

Write "$${" for a literal "${". Variables lists the placeholders a
template needs, which lets callers check their inputs up front.
*/
package template
