package tmplog

import (
	"runtime"
	"strings"
)

const (
	unknownFunction = "unknown"
	modulePath      = "pkt.systems/tmplog"
)

// CurrentFn returns the name of the calling function without its package
// path, or "unknown".
//
//	log.BeginScopeKV("fn", tmplog.CurrentFn())
func CurrentFn() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return unknownFunction
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return unknownFunction
	}
	return trimFunctionName(fn.Name())
}

func trimFunctionName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return unknownFunction
	}
	return name
}

func inModule(function string) bool {
	if !strings.HasPrefix(function, modulePath) {
		return false
	}
	rest := function[len(modulePath):]
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "/")
}

// callerFunctionName returns the first function on the stack outside this
// module, formatted like CurrentFn.
func callerFunctionName() string {
	var pcs [24]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !inModule(frame.Function) {
			return trimFunctionName(frame.Function)
		}
		if !more {
			return unknownFunction
		}
	}
}
