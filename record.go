package contactform

// Record is the snapshot frozen by a successful submission.
// Message is nil when the message field was empty at submission time.
type Record struct {
	FirstName string
	LastName  string
	Email     string
	Message   *string
}

func freeze(s Store) Record {
	r := Record{
		FirstName: s.Get(FirstName),
		LastName:  s.Get(LastName),
		Email:     s.Get(Email),
	}
	if msg := s.Get(Message); msg != "" {
		r.Message = &msg
	}
	return r
}

// HasMessage reports whether a message was submitted.
func (r Record) HasMessage() bool {
	return r.Message != nil
}

func (r Record) clone() Record {
	if r.Message != nil {
		msg := *r.Message
		r.Message = &msg
	}
	return r
}
