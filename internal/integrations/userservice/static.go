package userservice

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// Static справочник пользователей в памяти. Используется, когда UserService
// выключен в конфиге, и в тестах
type Static struct {
	mu          sync.RWMutex
	users       map[int64]domain.User
	memberships map[int64]bool

	// Default если задан, неизвестные пользователи получают этот статус и абонемент
	Default *domain.User
}

func NewStatic() *Static {
	return &Static{
		users:       make(map[int64]domain.User),
		memberships: make(map[int64]bool),
	}
}

// Put добавляет или заменяет пользователя
func (s *Static) Put(user domain.User, membership bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.memberships[user.ID] = membership
}

func (s *Static) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	if s.Default != nil {
		u := *s.Default
		u.ID = userID
		return &u, nil
	}
	return nil, ErrUserNotFound
}

func (s *Static) HasValidMembership(_ context.Context, userID int64, _ time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; ok {
		return s.memberships[userID], nil
	}
	if s.Default != nil {
		return true, nil
	}
	return false, ErrUserNotFound
}
