package flightconfig

import "reflect"

// Parameter is the contract a value type must satisfy before a ParameterSet
// can store it. Although the flightconfig package could work with any type, we
// guard against accidental use of types by requiring these three capabilities:
//
//   - Clone produces a deep copy that shares no mutable state with its source.
//   - Equals compares by value, not by identity.
//   - Update recomputes any state the value derives from its surroundings; it
//     is invoked during a refresh pass (see ParameterSet.Update) and returns
//     nothing.
//
// The type parameter E is self-referential so that Clone and Equals operate on
// the concrete parameter type rather than on an interface.
type Parameter[E any] interface {
	Clone() E
	Equals(other E) bool
	Update()
}

// isAbsent reports whether the given parameter value is absent, meaning there
// is no value at all rather than a zero one. Parameter types are usually
// pointers, for which absent means nil; values of non-nillable kinds are never
// absent.
func isAbsent[E any](v E) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// sameInstance reports whether a and b are the very same stored instance, as
// opposed to two independent values that happen to be equal. Only reference
// kinds have a usable notion of identity; for all other kinds sameInstance
// returns false.
func sameInstance[E any](a, b E) bool {
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
