package notify

import (
	"context"
	"sync"
)

// MockSender is a test double for the Sender interface. It records
// every message and can fail deliveries per recipient.
type MockSender struct {
	mu    sync.Mutex
	Calls []Message
	Err   error            // returned for every send when set
	Fail  map[string]error // per-recipient failures, checked before Err
}

// Send records the call and returns the configured failure, if any.
func (m *MockSender) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, msg)
	if err, ok := m.Fail[msg.To]; ok {
		return err
	}
	return m.Err
}

func (m *MockSender) Name() string { return "mock" }

// FailFor makes every future send to recipient return err. A nil err
// clears the failure.
func (m *MockSender) FailFor(recipient string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail == nil {
		m.Fail = make(map[string]error)
	}
	if err == nil {
		delete(m.Fail, recipient)
		return
	}
	m.Fail[recipient] = err
}

// Sent returns a copy of the recorded messages.
func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Calls...)
}

// CountTo returns how many messages were sent to recipient.
func (m *MockSender) CountTo(recipient string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.To == recipient {
			n++
		}
	}
	return n
}
