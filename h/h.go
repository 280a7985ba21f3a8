// Package h is a thin typed layer over gomponents for building views.
package h

import (
	"io"

	g "maragu.dev/gomponents"
	gc "maragu.dev/gomponents/components"
)

// H is a renderable DOM node or attribute.
type H interface {
	Render(w io.Writer) error
}

func Text(s string) H {
	return g.Text(s)
}

func Textf(format string, a ...any) H {
	return g.Textf(format, a...)
}

// If returns n when cond holds and renders nothing otherwise.
func If(cond bool, n H) H {
	if !cond {
		return nil
	}
	return n
}

// Group renders a list of nodes without a wrapping element.
func Group(children ...H) H {
	return g.Group(retype(children))
}

type HTML5Props struct {
	Title    string
	Language string
	Head     []H
	Body     []H
}

// HTML5 renders a full document with doctype, head and body.
func HTML5(p HTML5Props) H {
	return gc.HTML5(gc.HTML5Props{
		Title:    p.Title,
		Language: p.Language,
		Head:     retype(p.Head),
		Body:     retype(p.Body),
	})
}
