package core

import "sync"

// mockUSB is a test implementation of USB
type mockUSB struct {
	mu sync.Mutex

	configured bool
	changed    bool
	inReady    bool
	loopback   bool

	out      [][]byte
	in       [][]byte
	cdcInits int
}

func newMockUSB() *mockUSB {
	return &mockUSB{configured: true, inReady: true}
}

func (m *mockUSB) DataIsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.out) > 0
}

func (m *mockUSB) GetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.out) == 0 {
		return 0
	}
	return len(m.out[0])
}

func (m *mockUSB) GetAll(buf []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.out) == 0 {
		return 0
	}
	n := copy(buf, m.out[0])
	m.out = m.out[1:]
	return n
}

func (m *mockUSB) CDCIsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inReady
}

func (m *mockUSB) PutData(buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkt := append([]byte(nil), buf...)
	m.in = append(m.in, pkt)
	if m.loopback && len(pkt) > 0 {
		m.out = append(m.out, pkt)
	}
}

func (m *mockUSB) GetConfiguration() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured
}

func (m *mockUSB) IsConfigurationChanged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.changed
	m.changed = false
	return changed
}

func (m *mockUSB) CDCInit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cdcInits++
}

// hostWrite queues one OUT packet
func (m *mockUSB) hostWrite(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = append(m.out, append([]byte(nil), p...))
}

func (m *mockUSB) setINReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inReady = ready
}

func (m *mockUSB) setConfigured(configured bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.configured != configured {
		m.changed = true
	}
	m.configured = configured
}

func (m *mockUSB) reconfigure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = true
}

func (m *mockUSB) transfers() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.in...)
}

func (m *mockUSB) pendingOut() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.out)
}

func (m *mockUSB) inits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cdcInits
}
