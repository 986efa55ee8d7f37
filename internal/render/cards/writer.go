package cards

import (
	"fmt"
	"io"
)

// errWriter keeps the first write error so templates can print unconditionally.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if len(args) == 0 {
		_, e.err = io.WriteString(e.w, format)
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
