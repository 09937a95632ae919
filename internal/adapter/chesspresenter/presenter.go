package chesspresenter

import (
	"fmt"
	"io"
	"strings"
)

// Presenter writes formatted blocks to a terminal.
type Presenter struct {
	out io.Writer
	*Formatter
}

func NewPresenter(out io.Writer, f *Formatter) *Presenter {
	if f == nil {
		f = NewFormatter()
	}
	return &Presenter{out: out, Formatter: f}
}

// Show prints text followed by a newline. Blank text prints nothing.
func (p *Presenter) Show(text string) error {
	if p == nil || p.out == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.out, text)
	return err
}
