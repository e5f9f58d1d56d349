package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/infrastructure/monitoring"
	"github.com/hackmate/client/internal/shared/types"
)

// NotificationHandler consumes routed personal notifications. It runs on the
// connection's read goroutine and must not block.
type NotificationHandler func(types.Notification)

// NotificationRouter dispatches personal, out-of-band events (invitations,
// join/leave announcements) distinct from channel chat traffic. Frames with
// unknown or malformed type tags are classified as Other rather than dropped,
// so unexpected server behavior stays visible.
type NotificationRouter struct {
	mu      sync.RWMutex
	handler NotificationHandler

	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewNotificationRouter creates a router with no handler attached.
func NewNotificationRouter(log *logging.Logger, metrics *monitoring.Metrics) *NotificationRouter {
	if log == nil {
		log = logging.NewNop()
	}
	return &NotificationRouter{
		log:     log,
		metrics: metrics,
	}
}

// SetHandler installs the presentation callback. Passing nil detaches it;
// notifications routed with no handler are logged and discarded.
func (r *NotificationRouter) SetHandler(handler NotificationHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = handler
}

// Route classifies a notification payload and forwards it.
func (r *NotificationRouter) Route(payload *NotificationPayload) {
	n := types.Notification{
		Type:      types.NotificationOther,
		Timestamp: time.Now(),
	}
	if payload != nil {
		n.Type = types.Classify(payload.Type)
		n.Message = payload.Message
		if !payload.Timestamp.IsZero() {
			n.Timestamp = payload.Timestamp
		}
	}

	if r.metrics != nil {
		r.metrics.RecordNotification(string(n.Type))
	}

	r.mu.RLock()
	handler := r.handler
	r.mu.RUnlock()

	if handler == nil {
		r.log.Debug("notification dropped, no handler attached",
			zap.String("type", string(n.Type)))
		return
	}
	handler(n)
}
