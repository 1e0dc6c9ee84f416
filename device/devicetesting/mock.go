// Package devicetesting provides an in-memory MIDI port for exercising the
// device package without real hardware, grounded on the teacher's
// devices/devicestesting mock port.
package devicetesting

import (
	"errors"
	"sync"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// MockMIDIPort implements both drivers.In and drivers.Out.
type MockMIDIPort struct {
	mu sync.Mutex

	sent      [][]byte
	listeners []func(msg midi.Message, timestampms int32)
	shouldErr bool
	isOpen    bool
	name      string
}

func NewMockMIDIPort(name string) *MockMIDIPort {
	return &MockMIDIPort{name: name}
}

func (m *MockMIDIPort) Open() error {
	m.mu.Lock()
	m.isOpen = true
	m.mu.Unlock()
	return nil
}

func (m *MockMIDIPort) Close() error {
	m.mu.Lock()
	m.isOpen = false
	m.mu.Unlock()
	return nil
}

func (m *MockMIDIPort) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isOpen
}

func (m *MockMIDIPort) Number() int    { return 0 }
func (m *MockMIDIPort) String() string { return m.name }
func (m *MockMIDIPort) Underlying() interface{} { return m }

func (m *MockMIDIPort) Send(data []byte) error {
	if m.shouldErr {
		return errors.New("mock send error")
	}
	m.mu.Lock()
	m.sent = append(m.sent, data)
	m.mu.Unlock()
	return nil
}

func (m *MockMIDIPort) SimulateReceive(msg midi.Message) {
	m.mu.Lock()
	listeners := make([]func(msg midi.Message, timestampms int32), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()
	for _, l := range listeners {
		l(msg, 0)
	}
}

func (m *MockMIDIPort) Listen(onMsg func(msg []byte, milliseconds int32), _ drivers.ListenConfig) (func(), error) {
	if !m.IsOpen() {
		return nil, errors.New("port not open")
	}
	cb := func(msg midi.Message, timestampms int32) { onMsg(msg, timestampms) }
	m.mu.Lock()
	m.listeners = append(m.listeners, cb)
	idx := len(m.listeners) - 1
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.listeners) {
			m.listeners[idx] = nil
		}
	}, nil
}

func (m *MockMIDIPort) SentMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockMIDIPort) SetError(shouldErr bool) {
	m.mu.Lock()
	m.shouldErr = shouldErr
	m.mu.Unlock()
}
