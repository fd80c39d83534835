package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/dmitrijs2005/mediagate/internal/client/widget"
)

// isTerminal and terminalWidth are test seams for golang.org/x/term.
var (
	isTerminal    = term.IsTerminal
	terminalWidth = func(fd int) int {
		w, _, err := term.GetSize(fd)
		if err != nil || w <= 0 {
			return 80
		}
		return w
	}
)

type statusPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	width int
	name  string
	last  int
}

func newStatusPrinter(w io.Writer) *statusPrinter {
	p := &statusPrinter{w: w, width: 80}
	if f, ok := w.(*os.File); ok && isTerminal(int(f.Fd())) {
		p.tty = true
		p.width = terminalWidth(int(f.Fd()))
	}
	return p
}

func (p *statusPrinter) begin(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
	p.last = -1
}

// statusLine renders the step from -> s.State for the file name. Steps
// with nothing to show return "".
func statusLine(name string, from widget.State, s widget.Snapshot) string {
	switch s.State {
	case widget.RequestingToken:
		return name + ": requesting token"
	case widget.Uploading:
		return name + ": uploading"
	case widget.Success:
		return name + ": " + s.Value
	case widget.Failed:
		return name + ": " + s.UI.Error
	case widget.Idle:
		if from == widget.RequestingToken && s.UI.Error != "" {
			return name + ": " + s.UI.Error
		}
	}
	return ""
}

func (p *statusPrinter) transition(from, to widget.State, s widget.Snapshot) {
	s.State = to
	p.mu.Lock()
	defer p.mu.Unlock()

	line := statusLine(p.name, from, s)
	if line == "" {
		return
	}
	p.print(line, to == widget.Success || to == widget.Failed || to == widget.Idle)
}

func (p *statusPrinter) progress(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(sent * 100 / total)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tty || pct == p.last {
		return
	}
	p.last = pct
	p.print(fmt.Sprintf("%s: uploading %3d%% %s", p.name, pct, bar(pct, 20)), false)
}

// print writes line; on a terminal it overwrites the current line and final
// lines end with a newline.
func (p *statusPrinter) print(line string, final bool) {
	if !p.tty {
		fmt.Fprintln(p.w, line)
		return
	}
	fmt.Fprint(p.w, "\r\033[K"+truncate(line, p.width-1))
	if final {
		fmt.Fprintln(p.w)
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func bar(pct, width int) string {
	if pct > 100 {
		pct = 100
	}
	n := pct * width / 100
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", width-n) + "]"
}
