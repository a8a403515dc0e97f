package hw

import (
	"fmt"
	"io"
	"sync"

	"github.com/pion/logging"
	"go.bug.st/serial"
)

// Link sends instruction codes to the secondary serial module. Writes are
// fire and forget.
type Link struct {
	sync.Mutex
	w   io.Writer
	log logging.LeveledLogger
}

func NewLink(w io.Writer, lf logging.LoggerFactory) *Link {
	return &Link{w: w, log: lf.NewLogger("link")}
}

// OpenLink opens the serial port of the link module.
func OpenLink(port string, baud int, lf logging.LoggerFactory) (*Link, io.Closer, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, nil, fmt.Errorf("could not open %s: %w", port, err)
	}
	return NewLink(p, lf), p, nil
}

// Send writes one code followed by a newline.
func (l *Link) Send(code byte) {
	l.Lock()
	defer l.Unlock()
	if _, err := l.w.Write([]byte{code, '\n'}); err != nil {
		l.log.Warnf("could not send %q: %v", code, err)
	}
}
