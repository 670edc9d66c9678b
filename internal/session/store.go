package session

import (
	"sync"

	"go.uber.org/zap"
)

// Listener recibe el nuevo estado de autenticación después de cada SetToken o Clear.
type Listener func(authenticated bool)

type subscription struct {
	id uint64
	fn Listener
}

// Store es la única fuente de verdad del token de sesión del cliente.
// El estado autenticado se deriva siempre del token, nunca se guarda aparte.
type Store struct {
	logger  *zap.Logger
	storage Storage

	// writeMu serializa las mutaciones junto con su notificación.
	writeMu  sync.Mutex
	degraded bool

	mu     sync.RWMutex
	token  string
	subs   []subscription
	nextID uint64
}

// NewStore crea el store e intenta hidratar el token desde storage.
// No valida el token contra el backend; eso se descubre en la primera petición rechazada.
func NewStore(storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		logger:  logger,
		storage: storage,
	}
	if storage == nil {
		s.degraded = true
		return s
	}

	token, found, err := storage.Load()
	if err != nil {
		logger.Warn("session storage read failed, continuing in memory", zap.Error(err))
		s.degraded = true
		return s
	}
	if found && token != "" {
		s.token = token
		logger.Debug("session hydrated from storage")
	}
	return s
}

// Token devuelve el token actual sin efectos secundarios.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// SetToken reemplaza el token, lo persiste y notifica antes de retornar.
// Un token vacío equivale a Clear.
func (s *Store) SetToken(token string) {
	if token == "" {
		s.Clear()
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.save(token)
	s.notify()
}

// Clear borra el token de memoria y de storage. Es idempotente y siempre notifica.
// El borrado en storage se intenta aunque el store esté degradado.
func (s *Store) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	s.deleteStored()
	s.notify()
}

// ClearToken borra la sesión solo si el token vigente es token.
// Devuelve false sin notificar cuando ya fue reemplazado o borrado.
func (s *Store) ClearToken(token string) bool {
	if token == "" {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.mu.Unlock()

	s.deleteStored()
	s.notify()
	return true
}

// Subscribe registra un listener y devuelve la función para darlo de baja.
// Los listeners no deben llamar a SetToken ni a Clear.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// save debe llamarse con writeMu tomado. Si falla, borra la entrada previa
// para que un reload no reviva un token anterior.
func (s *Store) save(token string) {
	if s.degraded {
		return
	}
	if err := s.storage.Save(token); err != nil {
		s.logger.Warn("session storage write failed, continuing in memory", zap.Error(err))
		s.degraded = true
		s.deleteStored()
	}
}

// deleteStored debe llamarse con writeMu tomado.
func (s *Store) deleteStored() {
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(); err != nil {
		s.logger.Warn("session storage delete failed", zap.Error(err))
		s.degraded = true
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	authenticated := s.token != ""
	listeners := make([]Listener, 0, len(s.subs))
	for _, sub := range s.subs {
		listeners = append(listeners, sub.fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		s.call(fn, authenticated)
	}
}

func (s *Store) call(fn Listener, authenticated bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session listener panicked", zap.Any("panic", r))
		}
	}()
	fn(authenticated)
}
