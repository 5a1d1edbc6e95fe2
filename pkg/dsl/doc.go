/*
Package dsl provides a Go DSL for programmatically constructing IVR call-flow graphs.

It lets developers define flows with a type-safe, fluent builder using readable ids instead
of hand-writing interchange documents. It is used by the built-in templates and by tests.

Example usage:

	b := dsl.New()

	b.Add("welcome").
		Prompt("Thanks for calling.").
		Go("menu")

	b.Add("menu").
		Key("1", "Sales", "2", "Support").
		On("1", "sales").
		On("2", "bye")

	b.Add("sales").Transfer("SIP/sales")
	b.Add("bye").Hangup()

	g, err := b.Build()
*/
package dsl
