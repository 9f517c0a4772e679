package printing

import (
	"bytes"
	"io"
)

// LinePrefixWriter relays writes to another writer, starting every line
// with a fixed prefix. Output of go test, go vet and go doc goes through one
// so it stays recognisable inside the harness log.
type LinePrefixWriter struct {
	to     io.Writer
	prefix []byte
	// midLine is set when the previous write did not end with a newline.
	midLine bool
}

var _ io.Writer = (*LinePrefixWriter)(nil)

// NewLinePrefixWriter returns a LinePrefixWriter relaying to to.
func NewLinePrefixWriter(to io.Writer, prefix string) *LinePrefixWriter {
	return &LinePrefixWriter{to: to, prefix: []byte(prefix)}
}

// Write relays p one line at a time. The count covers bytes of p only, so a
// failure while the prefix is being written reports zero.
func (w *LinePrefixWriter) Write(p []byte) (int, error) {
	written := 0
	for _, line := range bytes.SplitAfter(p, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		head := w.prefix
		if w.midLine {
			head = nil
		}
		buf := make([]byte, 0, len(head)+len(line))
		buf = append(append(buf, head...), line...)
		if n, err := w.to.Write(buf); err != nil {
			return written + max(0, n-len(head)), err
		}
		written += len(line)
		w.midLine = line[len(line)-1] != '\n'
	}
	return written, nil
}
