package tokenstore

import "sync"

type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	return nil
}

func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.token, m.token != ""
}

func (m *Memory) Remove() error {
	return m.Save("")
}

func (m *Memory) Has() bool {
	_, ok := m.Get()
	return ok
}
