/*
package dep provides utilities for dependency injection.

okay, just the one.
*/
package dep

import (
	"fmt"
	"reflect"
	"runtime"
)

// isNil catches typed nils too: a nil *Settler in an interface is still
// missing.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Required returns t, or panics naming the constructor that was handed a
// nil dependency.
func Required[T any](t T) T {
	if !isNil(reflect.ValueOf(&t).Elem()) {
		return t
	}
	frames := runtime.CallersFrames(callers())
	if frame, ok := frames.Next(); ok && frame.Function != "" {
		panic(fmt.Sprintf("missing required dependency of type %T in %s (%s:%d)", t, frame.Function, frame.File, frame.Line))
	}
	panic(fmt.Sprintf("missing required dependency of type %T", t))
}

func callers() []uintptr {
	pc := make([]uintptr, 1)
	// Skip runtime.Callers, callers, and Required.
	n := runtime.Callers(3, pc)
	return pc[:n]
}
