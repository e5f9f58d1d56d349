package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hackmate/client/internal/shared/types"
)

var errTransportClosed = errors.New("transport closed")

// fakeTransport is an in-memory Transport driven from the test goroutine.
type fakeTransport struct {
	mu      sync.Mutex
	written []*Frame

	inbound   chan *Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan *Frame, 16),
		done:    make(chan struct{}),
	}
}

func (t *fakeTransport) ReadFrame() (*Frame, error) {
	select {
	case f := <-t.inbound:
		return f, nil
	case <-t.done:
		return nil, &TransportError{Op: "read", Err: errTransportClosed}
	}
}

func (t *fakeTransport) WriteFrame(f *Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		return &TransportError{Op: "write", Err: errTransportClosed}
	default:
	}
	t.written = append(t.written, f)
	return nil
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

// deliver feeds an inbound frame to the read loop.
func (t *fakeTransport) deliver(f *Frame) {
	t.inbound <- f
}

// fail simulates an unexpected transport drop.
func (t *fakeTransport) fail() {
	t.Close()
}

// writes returns a snapshot of the frames written so far, optionally
// filtered by type.
func (t *fakeTransport) writes(only ...FrameType) []*Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(only) == 0 {
		out := make([]*Frame, len(t.written))
		copy(out, t.written)
		return out
	}
	var out []*Frame
	for _, f := range t.written {
		for _, ft := range only {
			if f.Type == ft {
				out = append(out, f)
			}
		}
	}
	return out
}

// fakeDialer hands out fakeTransports, optionally with scripted failures
// before successes.
type fakeDialer struct {
	mu sync.Mutex

	// errs are consumed one per dial before transports are handed out.
	errs    []error
	dials   int
	tokens  []string
	created []*fakeTransport
}

func (d *fakeDialer) Dial(_ context.Context, _ string, token string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	d.tokens = append(d.tokens, token)
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return nil, err
	}
	t := newFakeTransport()
	d.created = append(d.created, t)
	return t, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.created) {
		return nil
	}
	return d.created[i]
}

func (d *fakeDialer) failNext(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, errs...)
}

func testSession() types.Session {
	return types.Session{UserID: "u1", Username: "alex", Token: "tok-1"}
}

func testOptions(d Dialer) Options {
	return Options{
		Endpoint:       "ws://test/ws",
		ReconnectDelay: 5 * time.Millisecond,
		Dialer:         d,
	}
}
