package tmplog

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// exceptionDetails splits err into the message and stack text stored on a
// Record. The stack comes from the innermost github.com/pkg/errors cause that
// recorded one; without a stack the unwrap chain is listed instead.
func exceptionDetails(err error) (message, stack string) {
	if err == nil {
		return "", ""
	}
	message = err.Error()
	var deepest stackTracer
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			deepest = st
		}
	}
	if deepest == nil {
		var st stackTracer
		if errors.As(err, &st) {
			deepest = st
		}
	}
	if deepest != nil {
		return message, strings.TrimLeft(fmt.Sprintf("%+v", deepest.StackTrace()), "\n")
	}
	var b strings.Builder
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("caused by: ")
		b.WriteString(e.Error())
	}
	return message, b.String()
}
