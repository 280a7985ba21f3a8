package contactform

// Store holds the current value of every field.
// The zero value is an empty form.
type Store struct {
	values [len(fieldNames)]string
}

// Set overwrites the value of one field. Unknown fields are ignored.
func (s *Store) Set(f Field, value string) {
	if !f.valid() {
		return
	}
	s.values[f] = value
}

// Get returns the value of f, or "" for unknown fields.
func (s *Store) Get(f Field) string {
	if !f.valid() {
		return ""
	}
	return s.values[f]
}

// Reset empties every field.
func (s *Store) Reset() {
	s.values = [len(fieldNames)]string{}
}
