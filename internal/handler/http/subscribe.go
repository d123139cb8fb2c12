package http

import (
	"context"
	"net/http"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/app"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	snapshotWriteTimeout = 10 * time.Second
	keepAliveInterval    = 30 * time.Second
)

// subscribe streams collection snapshots over a websocket. The first frame
// is the current content of the collection, every later frame follows a
// committed write. The feed is one-way: any frame sent by the client closes
// it.
func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	path, ok := collectionPathFromRequest(w, r)
	if !ok {
		return
	}

	subCtx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, unsubscribe, err := h.services.DocumentService.Subscribe(subCtx, path)
	if err != nil {
		log.Err(err).Str("func", "*Handler.subscribe").Str("path", path.String()).Msg("error subscribing to collection")
		writeError(w, err)
		return
	}
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Err(err).Str("func", "*Handler.subscribe").Msg("websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(subCtx)
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	log.Debug().Str("path", path.String()).Msg("change feed opened")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("path", path.String()).Msg("change feed closed by client")
			return
		case <-keepAlive.C:
			if err = ping(ctx, conn); err != nil {
				log.Debug().Err(err).Msg("change feed keepalive failed")
				return
			}
		case snapshot, open := <-snapshots:
			if !open {
				conn.Close(websocket.StatusGoingAway, app.MsgSubscriptionClosed)
				return
			}
			if err = writeSnapshot(ctx, conn, snapshot); err != nil {
				log.Debug().Err(err).Str("path", path.String()).Msg("error writing snapshot")
				return
			}
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snapshot any) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, snapshot)
}

func ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotWriteTimeout)
	defer cancel()
	return conn.Ping(ctx)
}
