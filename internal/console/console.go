// Package console writes user-facing messages. It is the human channel;
// structured logs go through internal/log instead. Output defaults to
// stderr so a stream piped to stdout stays clean.
package console

import (
	"fmt"
	"io"
	"os"
)

type Console struct {
	out     io.Writer
	inplace bool
	lastLen int
}

// New returns a console writing to out. A nil out means stderr.
func New(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out}
}

// Msg writes one terminal message line.
func (c *Console) Msg(format string, args ...any) {
	c.finishInplace()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// MsgInplace rewrites the current line in place, used for progress output.
func (c *Console) MsgInplace(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	// Pad with spaces so a shrinking message does not leave stale characters.
	pad := ""
	if d := c.lastLen - len(s); d > 0 {
		for i := 0; i < d; i++ {
			pad += " "
		}
	}
	fmt.Fprintf(c.out, "\r%s%s", s, pad)
	c.inplace = true
	c.lastLen = len(s)
}

// MsgInplaceEnd finalises an in-place line with a newline. It is a no-op if
// no in-place message was written.
func (c *Console) MsgInplaceEnd() {
	c.finishInplace()
}

func (c *Console) finishInplace() {
	if c.inplace {
		fmt.Fprintln(c.out)
		c.inplace = false
		c.lastLen = 0
	}
}
