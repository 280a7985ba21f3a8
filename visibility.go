package contactform

// Visibility decides whether an error for field f is surfaced, given
// whether the field has been touched by a blur or a submit attempt.
type Visibility func(f Field, touched bool) bool

// VisibleWhenTouched shows a field's error once the field lost focus or a
// submit was attempted.
func VisibleWhenTouched(_ Field, touched bool) bool {
	return touched
}

// VisibleAlways shows every error as soon as it is computed.
func VisibleAlways(Field, bool) bool {
	return true
}

func filterVisible(errs []ValidationError, touched []bool, visible Visibility) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if visible(e.Field, touched[e.Field]) {
			out = append(out, e)
		}
	}
	return out
}
