package main

import (
	"github.com/go-via/contactform"
	"github.com/go-via/contactform/h"
	"github.com/go-via/contactform/via"
)

type boundSignal interface {
	Bind() h.H
	String() string
	SetValue(v any)
}

type fieldTrigger interface {
	OnBlur(options ...via.ActionTriggerOption) h.H
	OnChange(options ...via.ActionTriggerOption) h.H
}

type input struct {
	field       contactform.Field
	label       string
	inputType   string
	placeholder string
	multiline   bool

	value  boundSignal
	blur   fieldTrigger
	change fieldTrigger
}

func formInputs() []input {
	return []input{
		{field: contactform.FirstName, label: "First Name*", inputType: "text", placeholder: "Edd"},
		{field: contactform.LastName, label: "Last Name*", inputType: "text", placeholder: "Burke"},
		{field: contactform.Email, label: "Email*", inputType: "email", placeholder: "bluebill1049@hotmail.com"},
		{field: contactform.Message, label: "Message", multiline: true},
	}
}

func contactFormPage(c *via.Context, opts contactform.Options) {
	form := contactform.New(opts)
	inputs := formInputs()

	// copy what the browser holds into the form before every event
	pull := func() {
		for _, in := range inputs {
			form.Change(in.field, in.value.String())
		}
	}

	for i := range inputs {
		in := &inputs[i]
		in.value = c.Signal("")
		in.blur = c.Action(func() {
			pull()
			form.Blur(in.field)
		})
		in.change = c.Action(func() {
			form.Change(in.field, in.value.String())
		})
	}

	submit := c.Action(func() {
		pull()
		if form.Submit() && opts.ClearOnSubmit {
			for _, in := range inputs {
				in.value.SetValue(form.Value(in.field))
			}
			c.SyncSignals()
		}
	})

	var shown contactform.Snapshot
	form.Subscribe(func(s contactform.Snapshot) {
		shown = s
		c.Sync()
	})

	c.View(func() h.H {
		display := contactform.Project(shown.Errors, shown.Record)

		fields := make([]h.H, 0, len(inputs))
		for _, in := range inputs {
			fields = append(fields, renderInput(in))
		}

		errs := make([]h.H, 0, len(display.Errors))
		for _, msg := range display.Errors {
			errs = append(errs, h.P(h.TestID("error"), h.Class("error"), h.Text(msg)))
		}

		lines := make([]h.H, 0, len(display.Lines))
		for _, l := range display.Lines {
			lines = append(lines, h.P(h.TestID(l.ID), h.Text(l.Text)))
		}

		return h.Main(h.Section(
			h.H1(h.Text("Contact Form")),
			h.Form(
				submit.OnSubmit(),
				h.Group(fields...),
				h.If(len(errs) > 0, h.Div(h.AriaLive("polite"), h.Group(errs...))),
				h.Button(h.Type("submit"), h.Text("Submit")),
			),
			h.If(len(lines) > 0, h.Div(h.Class("display"), h.Group(lines...))),
		))
	})
}

func renderInput(in input) h.H {
	name := in.field.String()
	attrs := []h.H{h.ID(name), h.Name(name), in.value.Bind(), in.blur.OnBlur(), in.change.OnChange()}
	if in.placeholder != "" {
		attrs = append(attrs, h.Placeholder(in.placeholder))
	}
	var control h.H
	if in.multiline {
		control = h.Textarea(attrs...)
	} else {
		control = h.Input(append(attrs, h.Type(in.inputType))...)
	}
	return h.Div(h.Label(h.For(name), h.Text(in.label)), control)
}
