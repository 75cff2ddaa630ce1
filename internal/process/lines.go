package process

import (
	"bytes"
	"strings"
	"sync"
)

const (
	maxLineBytes   = 1024 * 1024
	maxStderrBytes = 8 * 1024
)

// scanLines is bufio.ScanLines that also treats a bare '\r' as a line end.
// Tools that redraw a progress line in place emit '\r' without '\n'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// tailBuffer keeps the last max bytes of the lines written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []string
	n   int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(line) > t.max {
		line = line[len(line)-t.max:]
	}
	t.buf = append(t.buf, line)
	t.n += len(line) + 1
	for t.n > t.max && len(t.buf) > 1 {
		t.n -= len(t.buf[0]) + 1
		t.buf = t.buf[1:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.buf, "\n")
}
