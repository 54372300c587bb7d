package mqueue

import (
	"fmt"
	"slices"
	"sync"

	"github.com/danmuck/mqmesh/internal/identity"
)

// Memory is an in-process namespace. It keeps POSIX semantics: unlinking a
// name detaches the queue from the namespace while open handles keep it,
// and reopening the name afterwards yields a new empty queue.
type Memory struct {
	mu     sync.Mutex
	attr   Attr
	queues map[identity.ID]*memQueue
}

type memQueue struct {
	mu    sync.Mutex
	attr  Attr
	msgs  [][]byte
	armed []*memChannel
}

type memChannel struct {
	id   identity.ID
	q    *memQueue
	wake chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewMemory(attr Attr) *Memory {
	return &Memory{
		attr:   attr.WithDefaults(),
		queues: make(map[identity.ID]*memQueue),
	}
}

func (m *Memory) OpenOwn(id identity.ID) (Channel, error) {
	if id.IsNone() {
		return nil, fmt.Errorf("%w: empty name", ErrResource)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[id]
	if !ok {
		q = &memQueue{attr: m.attr}
		m.queues[id] = q
	}
	return newMemChannel(id, q), nil
}

func (m *Memory) OpenRemote(id identity.ID) (Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.ChannelName())
	}
	return newMemChannel(id, q), nil
}

func (m *Memory) Unlink(id identity.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queues[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id.ChannelName())
	}
	delete(m.queues, id)
	return nil
}

// Exists reports whether id is currently linked in the namespace.
func (m *Memory) Exists(id identity.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.queues[id]
	return ok
}

func newMemChannel(id identity.ID, q *memQueue) *memChannel {
	return &memChannel{id: id, q: q, wake: make(chan struct{}, 1)}
}

func (c *memChannel) ID() identity.ID {
	return c.id
}

func (c *memChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *memChannel) Send(msg []byte) error {
	if c.isClosed() {
		return ErrClosed
	}
	q := c.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(msg) == 0 || len(msg) > q.attr.MessageSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrMessageSize, len(msg), q.attr.MessageSize)
	}
	if len(q.msgs) >= q.attr.Capacity {
		return ErrFull
	}
	q.msgs = append(q.msgs, slices.Clone(msg))
	for _, w := range q.armed {
		notify(w.wake)
	}
	q.armed = q.armed[:0]
	return nil
}

func (c *memChannel) Receive() ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	q := c.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) == 0 {
		return nil, ErrEmpty
	}
	msg := q.msgs[0]
	q.msgs = q.msgs[1:]
	return msg, nil
}

func (c *memChannel) Len() (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}
	c.q.mu.Lock()
	defer c.q.mu.Unlock()
	return len(c.q.msgs), nil
}

func (c *memChannel) Arm() error {
	if c.isClosed() {
		return ErrClosed
	}
	q := c.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.msgs) > 0 {
		notify(c.wake)
		return nil
	}
	if !slices.Contains(q.armed, c) {
		q.armed = append(q.armed, c)
	}
	return nil
}

func (c *memChannel) Wake() <-chan struct{} {
	return c.wake
}

func (c *memChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	q := c.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := slices.Index(q.armed, c); i >= 0 {
		q.armed = slices.Delete(q.armed, i, i+1)
	}
	return nil
}
