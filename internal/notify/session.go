package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"voterdesk/internal/constants"
	"voterdesk/internal/models"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/time/rate"
)

type clientFrame struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// peer serializes writes to one connection; frames may come from the
// session's own read loop and from concurrent Publish calls.
type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) writeFrame(ctx context.Context, frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return wsjson.Write(ctx, p.conn, frame)
}

// Serve upgrades the request and runs one session until the client
// disconnects. On connect the session joins its operator group and, for
// elevated operators, the admins group; it leaves both on any exit path.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, operatorID string, elevated bool) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	ctx := r.Context()
	p := &peer{conn: conn}

	groups := []string{operatorID}
	if elevated {
		groups = append(groups, models.NotificationTargetAdmins)
	}
	for _, g := range groups {
		h.join(g, p)
	}
	defer func() {
		for _, g := range groups {
			h.leave(g, p)
		}
	}()

	unread, err := h.unreadFor(ctx, operatorID, elevated)
	if err != nil {
		h.logger.WithError(err).Warn("Unread sync failed")
		conn.Close(websocket.StatusInternalError, "sync failed")
		return
	}
	if unread == nil {
		unread = []*models.Notification{}
	}
	if err := p.writeFrame(ctx, Frame{Event: "initial_sync", Payload: unread}); err != nil {
		return
	}

	// Pongs are throttled so a misbehaving client cannot turn the
	// keep-alive into a flood.
	pongLimiter := rate.NewLimiter(rate.Every(constants.PongMinIntervalSec*time.Second), 1)

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
			} else {
				h.logger.WithError(err).Debug("Session read failed")
			}
			return
		}

		switch frame.Type {
		case "ping":
			if pongLimiter.Allow() {
				if err := p.writeFrame(ctx, Frame{Event: "pong"}); err != nil {
					return
				}
			}
		case "mark_read":
			if frame.ID == "" {
				continue
			}
			if err := h.MarkRead(ctx, frame.ID); err != nil {
				h.logger.WithError(err).WithField("notification_id", frame.ID).
					Warn("Failed to mark notification read")
			}
		default:
			h.logger.WithField("type", frame.Type).Debug("Ignoring unknown frame type")
		}
	}
}
