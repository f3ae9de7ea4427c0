// Package console connects users to the simulated serial port.
package console

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// INPUT_BUFFER_SIZE is the read size for client input.
const INPUT_BUFFER_SIZE = 256

// CLIENT_WRITE_TIMEOUT is how long a connection may stall serial output
// before it is dropped.
const CLIENT_WRITE_TIMEOUT = time.Second

// Hub fans serial output out to every attached client, and forwards what
// the clients type to Input.
type Hub struct {
	Input        io.Writer     // Usually the serial port.
	WriteTimeout time.Duration // Per write limit for connections; zero waits forever.

	mutex   sync.Mutex
	clients map[int]io.Writer
	next    int
}

var _ io.Writer = (*Hub)(nil)

// NewHub creates a hub feeding input.
func NewHub(input io.Writer) *Hub {
	return &Hub{
		Input:        input,
		WriteTimeout: CLIENT_WRITE_TIMEOUT,
		clients:      map[int]io.Writer{},
	}
}

// Add attaches a client. The returned function detaches it.
func (hub *Hub) Add(client io.Writer) (remove func()) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	id := hub.next
	hub.next++
	hub.clients[id] = client

	return func() {
		hub.mutex.Lock()
		defer hub.mutex.Unlock()
		delete(hub.clients, id)
	}
}

// Len returns the number of attached clients.
func (hub *Hub) Len() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.clients)
}

// Write sends p to all clients. Clients that fail are detached.
func (hub *Hub) Write(p []byte) (n int, err error) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for id, client := range hub.clients {
		_, werr := client.Write(p)
		if werr != nil {
			logrus.WithError(werr).Debug("console: client dropped")
			delete(hub.clients, id)
		}
	}

	n = len(p)
	return
}

// deadlineWriter fails writes to conn that take longer than timeout, so
// that Hub.Write drops a client that stops reading.
type deadlineWriter struct {
	conn    net.Conn
	timeout time.Duration
}

func (dw *deadlineWriter) Write(p []byte) (n int, err error) {
	if dw.timeout > 0 {
		err = dw.conn.SetWriteDeadline(time.Now().Add(dw.timeout))
		if err != nil {
			return
		}
	}
	return dw.conn.Write(p)
}

// Feed copies client input to Input until r is exhausted. Input that the
// serial port refuses is dropped.
func (hub *Hub) Feed(r io.Reader) (err error) {
	buf := make([]byte, INPUT_BUFFER_SIZE)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			_, werr := hub.Input.Write(buf[:n])
			if werr != nil {
				logrus.WithError(werr).Warn("console: input dropped")
			}
		}
		if errors.Is(rerr, io.EOF) {
			return
		}
		if rerr != nil {
			err = rerr
			return
		}
	}
}
