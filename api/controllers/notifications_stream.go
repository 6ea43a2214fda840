package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/lottodesk-backend/api/responses"
	"github.com/angelmondragon/lottodesk-backend/internal/notifications"
	pkgerrors "github.com/angelmondragon/lottodesk-backend/pkg/errors"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

const defaultStreamHeartbeat = 25 * time.Second

// StreamNotifications pushes the caller's full notification list as
// server-sent events: one "snapshot" event on connect and one after every
// change. Snapshots are latest-wins, so a slow client skips intermediate lists.
func StreamNotifications(svc notifications.Service, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "notifications")
			return
		}
		actor, ok := requestActor(w, r, logg)
		if !ok {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		ctx := r.Context()
		updates := make(chan notifications.FeedSnapshot, 1)
		feed, err := svc.Feed(ctx, actor, func(snap notifications.FeedSnapshot) {
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- snap:
			default:
			}
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer feed.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		if logg != nil {
			logg.Info(ctx, "notifications.stream.open")
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		var seq int
		for {
			select {
			case <-ctx.Done():
				if logg != nil {
					logg.Info(ctx, "notifications.stream.closed")
				}
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case snap := <-updates:
				data, err := json.Marshal(snap)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "notifications.stream.encode", err)
					}
					continue
				}
				seq++
				if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", seq, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
