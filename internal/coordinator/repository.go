package coordinator

import (
	"context"
	"time"

	"github.com/udisondev/worldgate/internal/model"
)

// AccountStore определяет доступ к аккаунтам и журналу сессий.
// Используется для dependency injection в тестах.
type AccountStore interface {
	// GetAccount возвращает аккаунт по точному совпадению username.
	// Возвращает nil, nil если аккаунт не найден.
	GetAccount(ctx context.Context, username string) (*model.Account, error)

	// CreateAccount создаёт новый аккаунт с уже захэшированным паролем.
	CreateAccount(ctx context.Context, username, passwordHash string) (*model.Account, error)

	// ClaimOwnership атомарно занимает аккаунт для world node.
	// Возвращает false если аккаунт уже занят: условный UPDATE
	// закрывает гонку двух одновременных логинов с разных node.
	ClaimOwnership(ctx context.Context, username string, world int) (bool, error)

	// ReleaseOwnership сбрасывает logged_in и login_time.
	ReleaseOwnership(ctx context.Context, username string) error

	// ReleaseWorld сбрасывает ownership у всех аккаунтов world node.
	ReleaseWorld(ctx context.Context, world int) (int64, error)

	// SetBan / SetMute выставляют banned_until / muted_until.
	SetBan(ctx context.Context, username string, until time.Time) error
	SetMute(ctx context.Context, username string, until time.Time) error

	// InsertSession добавляет строку в append-only журнал сессий.
	InsertSession(ctx context.Context, s model.Session) error
}

// SaveStore определяет доступ к блобам сохранений.
// Реализация — save.FileRepository.
type SaveStore interface {
	// Load возвращает блоб или save.ErrNotFound.
	Load(profile, username string) ([]byte, error)

	// Store записывает блоб, last-write-wins. Верификацию блоба
	// выполняет координатор до вызова, не репозиторий.
	Store(profile, username string, data []byte) error
}
