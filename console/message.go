package console

import (
	"sync"
	"time"

	"github.com/cmodk/go-simpleflake"
)

type MessageSeverity string

const (
	MessageInfo    MessageSeverity = "info"
	MessageSuccess MessageSeverity = "success"
	MessageError   MessageSeverity = "error"
)

const (
	messageTTL = 5 * time.Second
)

type Message struct {
	Id       uint64
	Severity MessageSeverity
	Text     string
}

//Messages holds the single transient status line of a view. Showing a new
//message supersedes the current one and cancels its pending expiry, so an
//old expiry can never clear a newer message.
type Messages struct {
	clock Clock

	mu      sync.Mutex
	current *Message
	timer   Timer
	closed  bool
}

func NewMessages(clock Clock) *Messages {
	if clock == nil {
		clock = realClock{}
	}

	return &Messages{clock: clock}
}

func (m *Messages) Show(severity MessageSeverity, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if m.timer != nil {
		m.timer.Stop()
	}

	id := simpleflake.Next()

	m.current = &Message{
		Id:       id,
		Severity: severity,
		Text:     text,
	}

	m.timer = m.clock.AfterFunc(messageTTL, func() {
		m.expire(id)
	})
}

func (m *Messages) expire(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Id == id {
		m.current = nil
		m.timer = nil
	}
}

func (m *Messages) Current() *Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	message := *m.current

	return &message
}

func (m *Messages) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	m.current = nil
}

func (m *Messages) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	m.current = nil
	m.closed = true
}
