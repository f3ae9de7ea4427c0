package console

import (
	"context"
	"errors"
	"net"

	"github.com/sirupsen/logrus"
)

// Serve attaches each connection accepted on listener to the hub, until
// ctx is done.
func (hub *Hub) Serve(ctx context.Context, listener net.Listener) (err error) {
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	logrus.Infof("console: listening on %v", listener.Addr())

	for {
		var conn net.Conn
		conn, err = listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				err = nil
			}
			return
		}
		go hub.serveConn(ctx, conn)
	}
}

func (hub *Hub) serveConn(ctx context.Context, conn net.Conn) {
	log := logrus.WithField("client", conn.RemoteAddr().String())
	log.Info("console: connected")

	remove := hub.Add(&deadlineWriter{conn: conn, timeout: hub.WriteTimeout})
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer func() {
		stop()
		remove()
		conn.Close()
		log.Info("console: disconnected")
	}()

	err := hub.Feed(conn)
	if err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
		log.WithError(err).Warn("console: read")
	}
}
