package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-habit-tracker/models"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sethvargo/go-retry"
)

const subscribeRoute = "/api/docs/%s/subscribe"

// Subscribe implements [DocumentAdapter] over a websocket. The server pushes
// the whole collection as a [models.Snapshot] right after the upgrade and
// after every committed change. When the connection breaks the error goes to
// onError and the adapter dials again with capped exponential backoff.
func (h *HTTPDocumentAdapter) Subscribe(
	ctx context.Context,
	path models.DocPath,
	onSnapshot func(models.Snapshot),
	onError func(error),
) (func(), error) {
	if !path.Collection.Valid() {
		return nil, ErrBadRequest
	}

	subCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		h.subscribeLoop(subCtx, path, onSnapshot, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

func (h *HTTPDocumentAdapter) subscribeLoop(
	ctx context.Context,
	path models.DocPath,
	onSnapshot func(models.Snapshot),
	onError func(error),
) {
	backoff := h.newBackoff()
	log := h.logger.With().
		Str("func", "HTTPDocumentAdapter.subscribeLoop").
		Str("collection", path.Collection.String()).
		Logger()

	for {
		delivered, err := h.readSnapshots(ctx, path, onSnapshot)
		if ctx.Err() != nil {
			return
		}
		if err != nil && onError != nil {
			onError(err)
		}
		if delivered {
			backoff = h.newBackoff()
		}

		delay, _ := backoff.Next()
		log.Debug().Err(err).Dur("delay", delay).Msg("subscription interrupted, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// readSnapshots dials once and delivers snapshots until the connection
// fails. delivered reports whether at least one snapshot arrived.
func (h *HTTPDocumentAdapter) readSnapshots(ctx context.Context, path models.DocPath, onSnapshot func(models.Snapshot)) (delivered bool, err error) {
	header := http.Header{}
	if token := h.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.Dial(ctx, h.websocketURL(path.Collection), &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return false, ErrUnauthorized
		}
		return false, mapTransportError("subscribe", err)
	}
	defer conn.CloseNow()

	for {
		var snapshot models.Snapshot
		if err = wsjson.Read(ctx, conn, &snapshot); err != nil {
			if errors.Is(err, context.Canceled) {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return delivered, nil
			}
			return delivered, mapTransportError("subscribe", err)
		}
		if snapshot.Collection == "" {
			snapshot.Collection = path.Collection
		}

		delivered = true
		onSnapshot(snapshot)
	}
}

func (h *HTTPDocumentAdapter) websocketURL(collection models.Collection) string {
	base := h.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + strings.Replace(subscribeRoute, "%s", collection.String(), 1)
}

func (h *HTTPDocumentAdapter) newBackoff() retry.Backoff {
	return retry.WithCappedDuration(h.maxBackoff, retry.NewExponential(h.minBackoff))
}
