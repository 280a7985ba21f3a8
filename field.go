// Package contactform implements the validation and submission engine of a
// four-field contact form.
//
// Browser-facing code feeds it field changes, blurs and submits, and reads
// back the visible errors and the last submitted record. Everything here is
// synchronous; validation failures are data, never errors.
package contactform

// Field identifies one input of the contact form.
type Field int

const (
	FirstName Field = iota
	LastName
	Email
	Message
)

// Fields lists every field in declaration order.
var Fields = []Field{FirstName, LastName, Email, Message}

var fieldNames = [...]string{
	FirstName: "firstName",
	LastName:  "lastName",
	Email:     "email",
	Message:   "message",
}

func (f Field) String() string {
	if !f.valid() {
		return ""
	}
	return fieldNames[f]
}

func (f Field) valid() bool {
	return f >= FirstName && f <= Message
}

// ParseField returns the field with the given name.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if fieldNames[f] == name {
			return f, true
		}
	}
	return 0, false
}
