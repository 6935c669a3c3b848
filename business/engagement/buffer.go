package engagement

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"rateview/domain"
)

// dedupIndex is a fixed-capacity LRU set of event keys. A hit refreshes
// recency; inserts past capacity evict the least recently seen key.
type dedupIndex struct {
	capacity int
	order    *list.List // front = most recently seen
	items    map[string]*list.Element
}

func newDedupIndex(capacity int) *dedupIndex {
	if capacity <= 0 {
		capacity = 1
	}
	return &dedupIndex{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// seen reports whether key was already recorded, recording it if not.
func (d *dedupIndex) seen(key string) bool {
	if elem, ok := d.items[key]; ok {
		d.order.MoveToFront(elem)
		return true
	}

	d.items[key] = d.order.PushFront(key)
	if d.order.Len() > d.capacity {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.items, oldest.Value.(string))
	}

	return false
}

type bufferedEvent struct {
	bucket time.Time
	event  domain.EngagementEvent
}

// EventBuffer holds deduplicated raw events grouped into hourly buckets until
// they are flushed into the daily aggregates. The buffer is bounded: when
// full, the oldest buffered event is dropped. It replaces what used to be
// process-global queue state; construct one and hand it to the service.
type EventBuffer struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // of bufferedEvent, oldest at front
	dedup    *dedupIndex
}

func NewEventBuffer(capacity, dedupCapacity int) *EventBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventBuffer{
		capacity: capacity,
		order:    list.New(),
		dedup:    newDedupIndex(dedupCapacity),
	}
}

// Enqueue buffers the event into its hourly bucket. Duplicate events (same
// actor, product, bucket and type) are rejected with accepted=false.
func (b *EventBuffer) Enqueue(event domain.EngagementEvent) (bucket time.Time, accepted bool) {
	bucket = bucketStart(event.Timestamp)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dedup.seen(dedupKey(event, bucket)) {
		return bucket, false
	}

	b.order.PushBack(bufferedEvent{bucket: bucket, event: event})
	if b.order.Len() > b.capacity {
		b.order.Remove(b.order.Front())
	}

	return bucket, true
}

// DrainBucket removes and returns all events buffered for the given bucket.
func (b *EventBuffer) DrainBucket(bucket time.Time) []domain.EngagementEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	var events []domain.EngagementEvent
	for elem := b.order.Front(); elem != nil; {
		next := elem.Next()
		buffered := elem.Value.(bufferedEvent)
		if buffered.bucket.Equal(bucket) {
			events = append(events, buffered.event)
			b.order.Remove(elem)
		}
		elem = next
	}

	return events
}

// Buckets lists the distinct buckets currently holding events, oldest first.
func (b *EventBuffer) Buckets() []time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buckets []time.Time
	known := make(map[time.Time]struct{})
	for elem := b.order.Front(); elem != nil; elem = elem.Next() {
		bucket := elem.Value.(bufferedEvent).bucket
		if _, ok := known[bucket]; ok {
			continue
		}
		known[bucket] = struct{}{}
		buckets = append(buckets, bucket)
	}

	return buckets
}

func (b *EventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len()
}

// bucketStart truncates to the containing UTC hour. Zero timestamps bucket
// into the current hour.
func bucketStart(ts time.Time) time.Time {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Truncate(time.Hour)
}

func dedupKey(event domain.EngagementEvent, bucket time.Time) string {
	actor := event.UserID
	if actor == "" {
		actor = event.SessionID
	}
	if actor == "" {
		actor = "anon"
	}
	return fmt.Sprintf("%s:%s:%s:%s", actor, event.ProductID, bucket.Format(time.RFC3339), event.EventType)
}
