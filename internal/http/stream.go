package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assignmint.com/assignmint/internal/services"
)

const streamKeepAlive = 25 * time.Second

// StreamAvailable pushes feed snapshots as server-sent events until the
// client goes away.
func (h *Handler) StreamAvailable(c echo.Context) error {
	filter, err := feedFilter(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	snapshots := make(chan services.TaskSnapshot, 1)
	unsubscribe, err := h.matching.SubscribeAvailable(filter, func(s services.TaskSnapshot) {
		select {
		case snapshots <- s:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.matching.FeedClosed():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case s := <-snapshots:
			payload, err := json.Marshal(s)
			if err != nil {
				h.logger.Error("failed to encode feed snapshot", zap.Error(err))
				return nil
			}
			if _, err := fmt.Fprintf(res, "id: %d\nevent: snapshot\ndata: %s\n\n", s.Seq, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
