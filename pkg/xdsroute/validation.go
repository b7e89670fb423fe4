package xdsroute

import (
	"strings"

	"github.com/pkg/errors"
)

// ValidationErrors accumulates field-scoped validation failures while
// walking a resource, so a single parse reports every problem instead of
// stopping at the first one.
type ValidationErrors struct {
	fields []string
	errs   []string
}

// PushField descends into a sub-field. Every error recorded until the
// matching PopField is prefixed with the full field path.
func (v *ValidationErrors) PushField(suffix string) {
	v.fields = append(v.fields, suffix)
}

// PopField ascends out of the current sub-field.
func (v *ValidationErrors) PopField() {
	v.fields = v.fields[:len(v.fields)-1]
}

// AddError records msg against the current field path.
func (v *ValidationErrors) AddError(msg string) {
	v.errs = append(v.errs, strings.Join(v.fields, "")+": "+msg)
}

// Ok reports whether no error has been recorded.
func (v *ValidationErrors) Ok() bool {
	return len(v.errs) == 0
}

// ErrorOrNil joins all recorded errors into a single error prefixed with
// prefix, or returns nil if none were recorded.
func (v *ValidationErrors) ErrorOrNil(prefix string) error {
	if v.Ok() {
		return nil
	}
	return errors.Errorf("%s: [%s]", prefix, strings.Join(v.errs, "; "))
}
