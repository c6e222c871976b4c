package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/worldgate/internal/model"
)

// DB wraps a pgx connection pool for account and session-log operations.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// HashPassword хэширует пароль через bcrypt. Cost фиксируется в момент
// создания хэша, существующие аккаунты не перехэшируются.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a raw password against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GetAccount retrieves an account by exact username match.
// Returns nil, nil if the account does not exist.
func (d *DB) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	var acc model.Account
	err := d.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, logged_in, login_time,
		        banned_until, muted_until, staff_level
		 FROM accounts WHERE username = $1`, username,
	).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.LoggedIn, &acc.LoginTime,
		&acc.BannedUntil, &acc.MutedUntil, &acc.StaffLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", username, err)
	}
	return &acc, nil
}

// CreateAccount inserts a new account with the given password hash
// and returns the stored row.
func (d *DB) CreateAccount(ctx context.Context, username, passwordHash string) (*model.Account, error) {
	var acc model.Account
	err := d.pool.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, password_hash, logged_in, login_time,
		           banned_until, muted_until, staff_level`,
		username, passwordHash,
	).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.LoggedIn, &acc.LoginTime,
		&acc.BannedUntil, &acc.MutedUntil, &acc.StaffLevel)
	if err != nil {
		return nil, fmt.Errorf("creating account %q: %w", username, err)
	}
	slog.Info("auto-created account", "username", username)
	return &acc, nil
}

// ClaimOwnership помечает аккаунт как занятый world node.
// Условный UPDATE: выигрывает ровно один претендент, даже если два
// world node проверили logged_in одновременно.
// Возвращает false если аккаунт уже занят (или не существует).
func (d *DB) ClaimOwnership(ctx context.Context, username string, world int) (bool, error) {
	tag, err := d.pool.Exec(ctx,
		`UPDATE accounts SET logged_in = $1, login_time = $2
		 WHERE username = $3 AND logged_in = 0`,
		world, time.Now(), username,
	)
	if err != nil {
		return false, fmt.Errorf("claiming ownership of %q for world %d: %w", username, world, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseOwnership resets logged_in and login_time for the account.
func (d *DB) ReleaseOwnership(ctx context.Context, username string) error {
	_, err := d.pool.Exec(ctx,
		`UPDATE accounts SET logged_in = 0, login_time = NULL WHERE username = $1`,
		username,
	)
	if err != nil {
		return fmt.Errorf("releasing ownership of %q: %w", username, err)
	}
	return nil
}

// ReleaseWorld resets ownership for every account held by the given
// world node. Called on world_startup: a restarted node has lost its
// in-memory sessions, so the coordinator must stop believing it still
// owns them. Returns the number of accounts released.
func (d *DB) ReleaseWorld(ctx context.Context, world int) (int64, error) {
	tag, err := d.pool.Exec(ctx,
		`UPDATE accounts SET logged_in = 0, login_time = NULL WHERE logged_in = $1`,
		world,
	)
	if err != nil {
		return 0, fmt.Errorf("releasing world %d: %w", world, err)
	}
	return tag.RowsAffected(), nil
}

// SetBan updates banned_until for the account.
func (d *DB) SetBan(ctx context.Context, username string, until time.Time) error {
	_, err := d.pool.Exec(ctx,
		`UPDATE accounts SET banned_until = $1 WHERE username = $2`,
		until, username,
	)
	if err != nil {
		return fmt.Errorf("banning %q: %w", username, err)
	}
	return nil
}

// SetMute updates muted_until for the account.
func (d *DB) SetMute(ctx context.Context, username string, until time.Time) error {
	_, err := d.pool.Exec(ctx,
		`UPDATE accounts SET muted_until = $1 WHERE username = $2`,
		until, username,
	)
	if err != nil {
		return fmt.Errorf("muting %q: %w", username, err)
	}
	return nil
}

// InsertSession appends one row to the session log.
func (d *DB) InsertSession(ctx context.Context, s model.Session) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO sessions (uuid, account_id, profile, world, created_at, uid, ip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.UUID, s.AccountID, s.Profile, s.World, s.CreatedAt, s.UID, s.IP,
	)
	if err != nil {
		return fmt.Errorf("inserting session for account %d: %w", s.AccountID, err)
	}
	return nil
}
