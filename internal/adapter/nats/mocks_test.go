package nats

import (
	"sync"

	"github.com/nats-io/nats.go"
)

type mockConn struct {
	mu         sync.Mutex
	published  map[string][][]byte
	handlers   map[string]nats.MsgHandler
	publishErr error
	closed     bool
}

func newMockConn() *mockConn {
	return &mockConn{
		published: make(map[string][][]byte),
		handlers:  make(map[string]nats.MsgHandler),
	}
}

func (m *mockConn) Publish(subj string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published[subj] = append(m.published[subj], data)
	return nil
}

// Subscribe records the handler; the nil subscription needs no cleanup
func (m *mockConn) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[subj] = cb
	return nil, nil
}

func (m *mockConn) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockConn) deliver(subj string, data []byte) bool {
	m.mu.Lock()
	cb, ok := m.handlers[subj]
	m.mu.Unlock()
	if ok {
		cb(&nats.Msg{Subject: subj, Data: data})
	}
	return ok
}
