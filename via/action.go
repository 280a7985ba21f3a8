package via

import (
	"fmt"

	"github.com/go-via/contactform/h"
)

// actionTrigger represents a trigger to an event handler fn
type actionTrigger struct {
	id string
}

// ID returns the action's unique identifier.
func (a *actionTrigger) ID() string {
	return a.id
}

// ActionTriggerOption configures the event attribute of a trigger.
type ActionTriggerOption interface {
	apply(*triggerOpts)
}

type triggerOpts struct {
	prevent bool
}

type withPrevent bool

func (o withPrevent) apply(opts *triggerOpts) {
	opts.prevent = bool(o)
}

// ActionOptionWithPrevent adds preventDefault() to the event handler.
func ActionOptionWithPrevent() ActionTriggerOption {
	return withPrevent(true)
}

func applyOptions(options ...ActionTriggerOption) triggerOpts {
	var opts triggerOpts
	for _, opt := range options {
		if opt != nil {
			opt.apply(&opts)
		}
	}
	return opts
}

func actionURL(id string) string {
	return fmt.Sprintf("@get('/_action/%s')", id)
}

func (a *actionTrigger) on(event string, options ...ActionTriggerOption) h.H {
	opts := applyOptions(options...)
	attr := "on:" + event
	if opts.prevent {
		attr += "__prevent"
	}
	return h.Data(attr, actionURL(a.id))
}

// OnClick returns an h DOM attribute that triggers on click.
func (a *actionTrigger) OnClick(options ...ActionTriggerOption) h.H {
	return a.on("click", options...)
}

// OnBlur returns an h DOM attribute that triggers when the element loses focus.
func (a *actionTrigger) OnBlur(options ...ActionTriggerOption) h.H {
	return a.on("blur", options...)
}

// OnChange returns an h DOM attribute that triggers when the element's value changes.
func (a *actionTrigger) OnChange(options ...ActionTriggerOption) h.H {
	return a.on("change", options...)
}

// OnSubmit returns an h DOM attribute that triggers on form submission.
// The browser's own submission is always prevented.
func (a *actionTrigger) OnSubmit() h.H {
	return a.on("submit", ActionOptionWithPrevent())
}
