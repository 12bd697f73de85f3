// Package client holds the client-side pieces of the sync protocol that
// do not depend on any particular transport: a mailbox for messages
// arriving from asynchronous callbacks, drained once per frame, plus a
// poll rate limiter keyed on frame numbers.
package client

import (
	"sync"

	"github.com/bugduel/server/internal/proto"
)

// pollFrameGap is the minimum number of frames between network polls.
const pollFrameGap = 60

// MessagePool buffers messages pushed from transport callbacks until the
// frame loop drains them. Push is safe from any goroutine; Drain,
// Available and Block belong to the frame loop.
type MessagePool struct {
	mu   sync.Mutex
	msgs []proto.Message

	blocked      bool
	blockedFrame uint64
}

func NewMessagePool() *MessagePool {
	return &MessagePool{}
}

// Push adds a received message.
func (p *MessagePool) Push(msg proto.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

// Drain returns all buffered messages in arrival order and empties the
// pool.
func (p *MessagePool) Drain() []proto.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.msgs
	p.msgs = nil
	return out
}

// Available reports whether a new poll may be issued at frame. A pool
// that has never been blocked is always available.
func (p *MessagePool) Available(frame uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.blocked || frame >= p.blockedFrame+pollFrameGap
}

// Block marks a poll as issued at frame, holding off further polls for
// the next pollFrameGap frames.
func (p *MessagePool) Block(frame uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked = true
	p.blockedFrame = frame
}
