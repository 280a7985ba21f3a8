package vtest

import (
	"net/http"

	"github.com/go-via/contactform/h"
	"github.com/go-via/contactform/via"
)

// NewGreeterApp creates a minimal page for exercising the harness: a
// labelled name input greeted on blur or on form submit, a button that
// clears it, and a live echo of the signal.
func NewGreeterApp() http.Handler {
	v := via.New()
	v.Config(via.Options{LogLvl: via.LogLevelError})

	v.Page("/", func(c *via.Context) {
		name := c.Signal("")
		greeting := "Nobody yet"
		greeted := 0

		greet := c.Action(func() {
			greeting = "Hello, " + name.String() + "!"
			greeted++
			c.Sync()
		})

		reset := c.Action(func() {
			name.SetValue("")
			greeting = "Nobody yet"
			c.Sync()
		})

		c.View(func() h.H {
			return h.Div(
				h.H1(h.Text("Greeter")),
				h.Form(
					greet.OnSubmit(),
					h.Label(h.For("name"), h.Text("Your name")),
					h.Input(h.ID("name"), h.Name("name"), name.Bind(), greet.OnBlur()),
					h.Button(h.Type("submit"), h.Text("Greet")),
				),
				h.P(h.TestID("greeting"), h.Text(greeting)),
				h.P(h.TestID("greeted"), h.Textf("Greeted %d times", greeted)),
				h.P(h.Text("Echo: "), h.Span(name.Text())),
				h.Button(h.Text("Clear"), reset.OnClick(via.ActionOptionWithPrevent())),
			)
		})
	})

	return v.HTTPServeMux()
}
