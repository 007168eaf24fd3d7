package buildpipe

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeWait bounds how long a reload broadcast may block on one client.
const writeWait = 10 * time.Second

// reloadBroker tracks connected live-reload clients and broadcasts reload
// messages to all of them.
type reloadBroker struct {
	logger  Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newReloadBroker(logger Logger) *reloadBroker {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &reloadBroker{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// handle upgrades the request and keeps the connection registered until
// the client goes away. Clients never send anything meaningful, so the
// read side is only used to detect disconnects.
func (b *reloadBroker) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.logger.Debug("Live reload upgrade failed: %v", err)
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()

	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// broadcast tells every connected client to reload. Clients that cannot
// be written to are dropped.
func (b *reloadBroker) broadcast(ctx context.Context) {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, writeWait)
		err := c.Write(writeCtx, websocket.MessageText, []byte("reload"))
		cancel()
		if err != nil {
			b.logger.Debug("Dropping live reload client: %v", err)
			b.mu.Lock()
			delete(b.clients, c)
			b.mu.Unlock()
			_ = c.Close(websocket.StatusGoingAway, "write failed")
		}
	}
}

// clientCount reports the number of connected clients.
func (b *reloadBroker) clientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
