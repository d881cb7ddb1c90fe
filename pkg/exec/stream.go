package exec

import (
	"bytes"
	"hash/fnv"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// labelColors cycles through distinguishable ANSI colors so concurrent
// streams from different packages can be told apart.
var labelColors = []lipgloss.Color{
	lipgloss.Color("36"),  // teal
	lipgloss.Color("75"),  // light blue
	lipgloss.Color("35"),  // green
	lipgloss.Color("220"), // amber
	lipgloss.Color("171"), // magenta
	lipgloss.Color("209"), // orange
}

// Label renders the prefix written before every streamed line: the label
// colored by a stable hash of its text, followed by ": ".
// An empty label yields an empty prefix.
func Label(label string) string {
	if label == "" {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	color := labelColors[h.Sum32()%uint32(len(labelColors))]
	return lipgloss.NewStyle().Foreground(color).Render(label) + ": "
}

// prefixWriter buffers partial lines and writes each complete line to w
// with prefix prepended. Writers sharing mu never interleave lines.
type prefixWriter struct {
	mu     *sync.Mutex
	w      io.Writer
	prefix []byte
	buf    []byte
}

func newPrefixWriter(mu *sync.Mutex, w io.Writer, prefix string) *prefixWriter {
	return &prefixWriter{mu: mu, w: w, prefix: []byte(prefix)}
}

// Write implements io.Writer. It always reports len(p) consumed; errors from
// the underlying writer are dropped so a broken terminal never fails the
// process being streamed.
func (p *prefixWriter) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			break
		}
		p.emit(p.buf[:i+1])
		p.buf = p.buf[i+1:]
	}
	return len(b), nil
}

// Flush writes any trailing partial line, terminated with a newline.
func (p *prefixWriter) Flush() {
	if len(p.buf) == 0 {
		return
	}
	p.emit(append(p.buf, '\n'))
	p.buf = nil
}

func (p *prefixWriter) emit(line []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, 0, len(p.prefix)+len(line))
	out = append(out, p.prefix...)
	out = append(out, line...)
	_, _ = p.w.Write(out)
}
