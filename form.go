package contactform

// Status classifies the outcome of the most recent submit attempt.
type Status int

const (
	StatusEditing Status = iota
	StatusSubmitted
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	default:
		return "editing"
	}
}

// Options configures a Form.
type Options struct {
	// ClearOnSubmit empties every field after a successful submission.
	ClearOnSubmit bool

	// Validator evaluates the field rules. Defaults to NewValidator().
	Validator *Validator

	// Visibility filters which computed errors are published.
	// Defaults to VisibleWhenTouched.
	Visibility Visibility
}

// Snapshot is the state published to subscribers after every blur,
// submit and reset.
type Snapshot struct {
	Errors []ValidationError
	Record *Record
	Status Status
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Form owns the field values of one form instance and turns field events
// into published errors and submitted records.
//
// A Form is not safe for concurrent use; callers deliver one event at a time.
type Form struct {
	opts      Options
	store     Store
	touched   [len(fieldNames)]bool
	errors    []ValidationError
	record    *Record
	status    Status
	subs      []subscriber
	nextSubID int
}

// New returns an empty Form.
func New(opts Options) *Form {
	if opts.Validator == nil {
		opts.Validator = defaultValidator
	}
	if opts.Visibility == nil {
		opts.Visibility = VisibleWhenTouched
	}
	return &Form{opts: opts}
}

// Change stores value for field f. It does not validate.
func (f *Form) Change(field Field, value string) {
	f.store.Set(field, value)
}

// Value returns the current value of field.
func (f *Form) Value(field Field) string {
	return f.store.Get(field)
}

// Blur marks field as touched and republishes the visible errors.
func (f *Form) Blur(field Field) {
	if !field.valid() {
		return
	}
	f.touched[field] = true
	f.errors = filterVisible(f.opts.Validator.Validate(f.store), f.touched[:], f.opts.Visibility)
	f.publish()
}

// Submit validates every field. On failure it publishes the errors and
// keeps the current record. On success it freezes the values into a new
// record, clears the errors and reports true.
func (f *Form) Submit() bool {
	errs := f.opts.Validator.Validate(f.store)
	if len(errs) > 0 {
		for _, r := range f.opts.Validator.rules {
			f.touched[r.field] = true
		}
		f.errors = filterVisible(errs, f.touched[:], f.opts.Visibility)
		f.status = StatusEditing
		f.publish()
		return false
	}

	rec := freeze(f.store)
	f.record = &rec
	f.errors = nil
	f.status = StatusSubmitted
	if f.opts.ClearOnSubmit {
		f.store.Reset()
		f.touched = [len(fieldNames)]bool{}
	}
	f.publish()
	return true
}

// Reset returns the form to its freshly mounted state.
func (f *Form) Reset() {
	f.store.Reset()
	f.touched = [len(fieldNames)]bool{}
	f.errors = nil
	f.record = nil
	f.status = StatusEditing
	f.publish()
}

// Errors returns the currently published errors.
func (f *Form) Errors() []ValidationError {
	if len(f.errors) == 0 {
		return nil
	}
	return append([]ValidationError(nil), f.errors...)
}

// Record returns the last submitted record, if any.
func (f *Form) Record() (Record, bool) {
	if f.record == nil {
		return Record{}, false
	}
	return f.record.clone(), true
}

// Status returns the outcome of the most recent submit attempt.
func (f *Form) Status() Status {
	return f.status
}

// Display projects the published errors and record for rendering.
func (f *Form) Display() Display {
	return Project(f.errors, f.record)
}

// Snapshot returns the current published state.
func (f *Form) Snapshot() Snapshot {
	s := Snapshot{Errors: f.Errors(), Status: f.status}
	if rec, ok := f.Record(); ok {
		s.Record = &rec
	}
	return s
}

// Subscribe registers fn to receive a Snapshot after every Blur, Submit
// and Reset. The returned func removes the subscription.
func (f *Form) Subscribe(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	id := f.nextSubID
	f.nextSubID++
	f.subs = append(f.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

func (f *Form) publish() {
	if len(f.subs) == 0 {
		return
	}
	snap := f.Snapshot()
	for _, s := range append([]subscriber(nil), f.subs...) {
		s.fn(snap)
	}
}
