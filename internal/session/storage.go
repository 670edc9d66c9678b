package session

import (
	"strings"
	"sync"
)

// storageKey es la única clave durable que guarda el cliente por origen.
const storageKey = "token"

// Storage persiste el token entre recargas. Una clave ausente significa no autenticado.
type Storage interface {
	Load() (token string, found bool, err error)
	Save(token string) error
	Delete() error
}

func normalizeOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

// MemoryStorage guarda el token sólo durante la vida del proceso.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
	found bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.found, nil
}

func (m *MemoryStorage) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.found = true
	return nil
}

func (m *MemoryStorage) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.found = false
	return nil
}
