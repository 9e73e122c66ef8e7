package realtime

import (
	"sync"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

const (
	TopicMessages      = "messages"
	TopicNotifications = "notifications"
	TopicPosts         = "posts"
	TopicProgress      = "progress"
	TopicRecipes       = "recipes"
)

// Event is one change delivered to subscribers of a topic.
type Event struct {
	Topic  string
	Op     Op
	Record any
}

// Filter restricts which events a subscription receives. A nil filter
// matches everything.
type Filter func(Event) bool

// Dispatcher fans change events out to per-topic subscriptions. Delivery
// is ordered within one subscription and best-effort only: a subscriber
// that falls behind its buffer loses events and must reconcile with a
// fresh fetch, the same contract a dropped network connection gives.
type Dispatcher struct {
	mu         sync.RWMutex
	topics     map[string]map[int64]*Subscription
	nextID     int64
	bufferSize int
}

type Subscription struct {
	id         int64
	topic      string
	filter     Filter
	events     chan Event
	done       chan struct{}
	closeOnce  sync.Once
	dispatcher *Dispatcher
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		topics:     make(map[string]map[int64]*Subscription),
		bufferSize: 32,
	}
}

// Subscribe registers handler for events on topic that match filter and
// starts delivering on a dedicated goroutine. The returned subscription
// must be closed when the owner is done with it.
func (d *Dispatcher) Subscribe(topic string, filter Filter, handler func(Event)) *Subscription {
	d.mu.Lock()
	d.nextID++
	sub := &Subscription{
		id:         d.nextID,
		topic:      topic,
		filter:     filter,
		events:     make(chan Event, d.bufferSize),
		done:       make(chan struct{}),
		dispatcher: d,
	}
	subs, ok := d.topics[topic]
	if !ok {
		subs = make(map[int64]*Subscription)
		d.topics[topic] = subs
	}
	subs[sub.id] = sub
	d.mu.Unlock()

	go sub.pump(handler)
	return sub
}

// Publish delivers event to every matching subscription of its topic.
// The send never blocks; a full subscriber buffer drops the event.
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	subs := d.topics[event.Topic]
	matched := make([]*Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.filter == nil || sub.filter(event) {
			matched = append(matched, sub)
		}
	}
	d.mu.RUnlock()

	for _, sub := range matched {
		select {
		case sub.events <- event:
		case <-sub.done:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscriptions on topic.
func (d *Dispatcher) SubscriberCount(topic string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.topics[topic])
}

func (s *Subscription) pump(handler func(Event)) {
	for {
		select {
		case event := <-s.events:
			handler(event)
		case <-s.done:
			return
		}
	}
}

// Close releases the subscription. Safe to call any number of times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		d := s.dispatcher
		d.mu.Lock()
		subs := d.topics[s.topic]
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(d.topics, s.topic)
		}
		d.mu.Unlock()
		close(s.done)
	})
}

// Topic returns the topic this subscription listens on.
func (s *Subscription) Topic() string {
	return s.topic
}
