package sink

import (
	"net"
	"sync"
)

// responseHeader is all the HTTP the relay speaks: acknowledge the request,
// then stream raw bytes until the source or the client goes away.
const responseHeader = "HTTP/1.0 200 OK\r\n" +
	"Server: pipecast\r\n" +
	"Content-Type: video/unknown\r\n" +
	"\r\n"

// ConnSink wraps one accepted relay connection.
type ConnSink struct {
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

func NewConnSink(conn net.Conn) *ConnSink {
	return &ConnSink{conn: conn}
}

func (c *ConnSink) Kind() Kind {
	return KindHTTP
}

// Open acknowledges the client with a minimal response header; everything
// written afterwards is verbatim stream payload.
func (c *ConnSink) Open() error {
	_, err := c.conn.Write([]byte(responseHeader))
	return err
}

func (c *ConnSink) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

func (c *ConnSink) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
