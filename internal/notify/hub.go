package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voterdesk/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationStore is the persistence surface behind the hub: publish
// writes through it, and sessions replay unread entries on connect.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	UnreadNotifications(ctx context.Context, target string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// Frame is the server-to-client message shape.
type Frame struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub groups connected sessions by operator identity plus one shared
// admins broadcast group. Publish persists first, then pushes to every
// session currently in the target group; offline sessions catch up via
// the connect-time unread sync.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[*peer]struct{}

	store  NotificationStore
	logger *logrus.Logger
}

func NewHub(store NotificationStore, logger *logrus.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*peer]struct{}),
		store:  store,
		logger: logger,
	}
}

// Publish persists the notification and pushes it to the target group.
// A push failure on one session never blocks the others; dead sessions
// are detected by their own read loops.
func (h *Hub) Publish(ctx context.Context, n *models.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	if n.Target == "" {
		n.Target = models.NotificationTargetAdmins
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := h.store.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	frame := Frame{Event: "notify", Payload: n}
	for _, p := range h.subscribers(n.Target) {
		if err := p.writeFrame(ctx, frame); err != nil {
			h.logger.WithError(err).WithField("target", n.Target).
				Debug("Failed to push notification to session")
		}
	}

	return nil
}

// MarkRead flips a notification's read state on behalf of a session.
func (h *Hub) MarkRead(ctx context.Context, notificationID string) error {
	return h.store.MarkNotificationRead(ctx, notificationID)
}

func (h *Hub) join(groupID string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[groupID]
	if !ok {
		group = make(map[*peer]struct{})
		h.groups[groupID] = group
	}
	group[p] = struct{}{}
}

func (h *Hub) leave(groupID string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[groupID]
	if !ok {
		return
	}
	delete(group, p)
	if len(group) == 0 {
		delete(h.groups, groupID)
	}
}

func (h *Hub) subscribers(groupID string) []*peer {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.groups[groupID]
	peers := make([]*peer, 0, len(group))
	for p := range group {
		peers = append(peers, p)
	}
	return peers
}

// unreadFor collects the connect-time sync payload: the operator's own
// unread entries plus, for elevated sessions, the admins group's.
func (h *Hub) unreadFor(ctx context.Context, operatorID string, elevated bool) ([]*models.Notification, error) {
	unread, err := h.store.UnreadNotifications(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unread notifications: %w", err)
	}

	if elevated {
		adminUnread, err := h.store.UnreadNotifications(ctx, models.NotificationTargetAdmins)
		if err != nil {
			return nil, fmt.Errorf("failed to load admin notifications: %w", err)
		}
		unread = append(unread, adminUnread...)
	}

	return unread, nil
}
