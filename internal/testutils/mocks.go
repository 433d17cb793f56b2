package testutils

import "sync"

// MockSink is a Sink implementation that records every payload it
// receives. It can be told to fail with a fixed error.
type MockSink struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

// FailWith makes every subsequent Send return err.
func (m *MockSink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Send records the payload, or fails if configured to.
func (m *MockSink) Send(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	m.payloads = append(m.payloads, p)
	return nil
}

// Payloads returns a copy of everything received so far.
func (m *MockSink) Payloads() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.payloads))
	copy(out, m.payloads)
	return out
}

// SendCount returns how many payloads were accepted.
func (m *MockSink) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}
