package contactform

import "fmt"

// Line is one rendered line of a submitted record.
type Line struct {
	// ID is the stable display id of the line, e.g. "firstnameDisplay".
	ID   string
	Text string
}

// Display is what the page renders: error strings in engine order and
// the lines of the current record.
type Display struct {
	Errors []string
	Lines  []Line
}

// Project derives the display for errs and rec. rec may be nil.
func Project(errs []ValidationError, rec *Record) Display {
	var d Display
	for _, e := range errs {
		d.Errors = append(d.Errors, e.Message)
	}
	if rec == nil {
		return d
	}
	d.Lines = []Line{
		{ID: "firstnameDisplay", Text: fmt.Sprintf("First Name: %s", rec.FirstName)},
		{ID: "lastnameDisplay", Text: fmt.Sprintf("Last Name: %s", rec.LastName)},
		{ID: "emailDisplay", Text: fmt.Sprintf("Email: %s", rec.Email)},
	}
	if rec.HasMessage() {
		d.Lines = append(d.Lines, Line{ID: "messageDisplay", Text: fmt.Sprintf("Message: %s", *rec.Message)})
	}
	return d
}
