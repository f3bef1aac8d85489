package stream

import (
	"sync"

	"github.com/zhouzirui/weather-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

// DefaultFeedBuffer is the number of updates queued per subscriber.
const DefaultFeedBuffer = 64

// Feed bridges session observers to a consumer goroutine. Partial updates
// are dropped when the consumer falls behind; losing any other update marks
// the feed as lagged so the consumer can resync from a snapshot.
type Feed struct {
	updates     chan chat.Update
	lagged      chan struct{}
	lagOnce     sync.Once
	unsubscribe func()
}

// Subscribe attaches a feed to session.
func Subscribe(session *chatService.Session, buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultFeedBuffer
	}
	f := &Feed{
		updates: make(chan chat.Update, buffer),
		lagged:  make(chan struct{}),
	}
	f.unsubscribe = session.Subscribe(f.observe)
	return f
}

// Updates delivers session updates in order.
func (f *Feed) Updates() <-chan chat.Update {
	return f.updates
}

// Lagged is closed once a non-partial update could not be queued.
func (f *Feed) Lagged() <-chan struct{} {
	return f.lagged
}

// Close detaches the feed from its session.
func (f *Feed) Close() {
	f.unsubscribe()
}

func (f *Feed) observe(u chat.Update) {
	select {
	case f.updates <- u:
	default:
		if u.Kind == chat.UpdatePartial {
			return
		}
		f.lagOnce.Do(func() { close(f.lagged) })
	}
}
