package console

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WEBSOCKET_PATH is where ServeWebSocket accepts connections.
const WEBSOCKET_PATH = "/sim51"

var wsUpgrader = websocket.Upgrader{}

// wsClient adapts a websocket connection to io.Writer. Each write is sent
// as one binary message.
type wsClient struct {
	mutex   sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (client *wsClient) Write(p []byte) (n int, err error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()

	if client.timeout > 0 {
		err = client.conn.SetWriteDeadline(time.Now().Add(client.timeout))
		if err != nil {
			return
		}
	}
	err = client.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return
	}
	n = len(p)
	return
}

// Handler upgrades requests to websockets attached to the hub. Text and
// binary messages are both accepted as input.
func (hub *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logrus.WithField("client", r.RemoteAddr)

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("console: websocket upgrade")
			return
		}
		defer conn.Close()

		log.Info("console: websocket connected")
		remove := hub.Add(&wsClient{conn: conn, timeout: hub.WriteTimeout})
		defer remove()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Debug("console: websocket read")
				}
				break
			}
			_, err = hub.Input.Write(msg)
			if err != nil {
				log.WithError(err).Warn("console: input dropped")
			}
		}

		log.Info("console: websocket disconnected")
	})
}

// ServeWebSocket serves websocket clients at addr until ctx is done.
func (hub *Hub) ServeWebSocket(ctx context.Context, addr string) (err error) {
	mux := http.NewServeMux()
	mux.Handle(WEBSOCKET_PATH, hub.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		server.Close()
	})
	defer stop()

	logrus.Infof("console: websocket at ws://%s%s", addr, WEBSOCKET_PATH)

	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return
}
