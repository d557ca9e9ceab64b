package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Topic names exposed to subscribers. Each one is an independent channel on
// the bus; there is no ordering guarantee across distinct topics.
const (
	TopicUserCreated         = "userCreated"
	TopicUserUpdated         = "userUpdated"
	TopicFriendsChange       = "friendsChange"
	TopicPostCreated         = "postCreated"
	TopicPostUpdated         = "postUpdated"
	TopicPostDeleted         = "postDeleted"
	TopicFriendsPostsChanges = "friendsPostsChanges"
)

// Action tags carried by envelopes. friendsChange uses add/change/delete,
// friendsPostsChanges uses added/updated/deleted; the remaining topics carry
// no action.
type Action string

const (
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"

	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Envelope is the unit published on the bus: a domain snapshot plus the
// derived metadata subscribers need to keep their lists consistent without a
// refetch. The scoping fields (OwnerID, EdgeUserIDs, Audience) are consumed
// by predicates only and never serialized to clients.
type Envelope struct {
	Topic      string `json:"topic"`
	Action     Action `json:"action,omitempty"`
	Payload    any    `json:"payload"`
	TotalPages int    `json:"totalPages"`

	OwnerID     uint              `json:"-"`
	EdgeUserIDs [2]uint           `json:"-"`
	Audience    map[uint]struct{} `json:"-"`
}

// subscriptionBuffer is how many undelivered envelopes a single subscriber
// may accumulate before further publishes are dropped for it. Dropping keeps
// a slow consumer from stalling the publisher or its siblings.
const subscriptionBuffer = 32

// Subscription is a live attachment to one topic. It is owned by exactly one
// consumer: read from C() until it is closed, and call Close() on disconnect.
type Subscription struct {
	id    uuid.UUID
	topic string
	pred  Predicate
	ch    chan Envelope

	hub  *Hub
	once sync.Once
}

// C returns the channel envelopes are delivered on. It is closed when the
// subscription is closed or the hub shuts down.
func (s *Subscription) C() <-chan Envelope {
	return s.ch
}

// ID returns the unique identifier of this subscription.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Topic returns the topic this subscription is attached to.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close detaches the subscription from the hub and closes its channel.
// Pending envelopes that have not been read are dropped. Safe to call more
// than once and safe to call concurrently with Publish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.detach(s)
		close(s.ch)
	})
}

// Hub is the in-process event bus: a topic-addressed broadcast with one
// buffered queue per subscription. It is created once at startup and passed
// by reference to everything that publishes or subscribes.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]bool
	closed bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]bool),
	}
}

// Subscribe attaches a new subscription to a topic. Only envelopes published
// after attachment are observed; there is no replay. The predicate decides
// per-envelope whether this subscriber sees it.
func (h *Hub) Subscribe(topic string, pred Predicate) *Subscription {
	sub := &Subscription{
		id:    uuid.New(),
		topic: topic,
		pred:  pred,
		ch:    make(chan Envelope, subscriptionBuffer),
		hub:   h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		// The hub is shutting down; hand back an already-closed subscription
		// so the consumer terminates immediately.
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[*Subscription]bool)
	}
	h.topics[topic][sub] = true

	return sub
}

// Publish delivers an envelope to every subscription currently attached to
// the topic whose predicate matches. It never blocks: a subscriber whose
// queue is full misses the envelope. Publishing to a topic with no
// subscribers is a no-op. Publishes are serialized, so every subscriber on a
// topic observes the same order.
func (h *Hub) Publish(topic string, env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for sub := range h.topics[topic] {
		if !sub.pred.Match(env) {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			// Subscriber queue is full; drop for this consumer only.
		}
	}
}

// detach removes a subscription from the registry. Called under
// Subscription.Close's once so the channel close happens exactly once, after
// no publisher can reach it anymore.
func (h *Hub) detach(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[s.topic]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.topics, s.topic)
		}
	}
}

// Shutdown closes every subscription and rejects further publishes and
// subscribes. Called once at process stop.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*Subscription
	for _, subs := range h.topics {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	h.topics = make(map[string]map[*Subscription]bool)
	h.mu.Unlock()

	for _, sub := range all {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// SubscriberCount returns the number of live subscriptions on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
