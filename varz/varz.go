/*
varz provides helpers to create expvar variables with package-qualified names.
It also imports expvar, so it will register it with http.DefaultServeMux.

Names are qualified by the last element of the caller's package path, so a
counter declared in package equity shows up as "equity.name".
*/
package varz

import (
	"expvar"
	"runtime"
	"strings"
)

const unknownPackage = "varz.unknown"

// packageOf trims a function name like
// "github.com/ts4z/chipclock/equity.init" to "equity".  Variables declared
// in a var block are created from the package's init function, which this
// also strips.
func packageOf(function string) string {
	if function == "" {
		return unknownPackage
	}
	if slash := strings.LastIndex(function, "/"); slash != -1 {
		function = function[slash+1:]
	}
	if dot := strings.Index(function, "."); dot != -1 {
		function = function[:dot]
	}
	return function
}

// qualify prefixes name with the package of NewInt's (or NewMap's) caller.
func qualify(name string) string {
	pc := make([]uintptr, 1)
	// Skip runtime.Callers, qualify, and NewInt/NewMap.
	if runtime.Callers(3, pc) == 0 {
		return unknownPackage + "." + name
	}
	frame, _ := runtime.CallersFrames(pc).Next()
	return packageOf(frame.Function) + "." + name
}

func NewInt(name string) *expvar.Int {
	return expvar.NewInt(qualify(name))
}

func NewMap(name string) *expvar.Map {
	return expvar.NewMap(qualify(name))
}
