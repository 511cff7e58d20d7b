package socket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

var errMockClosed = errors.New("mock connection closed")

type mockConn struct {
	readC       chan string
	closed      chan struct{}
	closeOnce   sync.Once
	normalClose bool
	writeErr    error

	mu           sync.Mutex
	written      []string
	closeReasons []string
}

func newMockConn() *mockConn {
	c := mockConn{
		readC:  make(chan string),
		closed: make(chan struct{}),
	}
	return &c
}

func (c *mockConn) ReadText() (string, error) {
	select {
	case text := <-c.readC:
		return text, nil
	case <-c.closed:
		return "", errMockClosed
	}
}

func (c *mockConn) WriteText(text string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, text)
	return nil
}

func (c *mockConn) WriteClose(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeReasons = append(c.closeReasons, reason)
	return nil
}

func (*mockConn) SetWriteDeadline(t time.Time) error {
	return nil
}

func (c *mockConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

func (c *mockConn) IsNormalClose(err error) bool {
	return c.normalClose
}

func (c *mockConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *mockConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.written...)
}

type mockDialer struct {
	conn Conn
	err  error
	// release, if not nil, must be closed before Dial returns.
	release chan struct{}

	mu     sync.Mutex
	dials  int
	url    string
	header http.Header
}

func (d *mockDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	d.mu.Lock()
	d.dials++
	d.url = url
	d.header = header
	d.mu.Unlock()
	if d.release != nil {
		<-d.release
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func (d *mockDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// queueDialer returns the next connection for each dial after its release channel is closed.
type queueDialer struct {
	conns    []Conn
	releases []chan struct{}

	mu    sync.Mutex
	dials int
}

func (d *queueDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	d.mu.Lock()
	i := d.dials
	d.dials++
	d.mu.Unlock()
	<-d.releases[i]
	return d.conns[i], nil
}

func (d *queueDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
