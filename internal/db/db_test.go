package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/worldgate/internal/model"
)

func mustCreate(t *testing.T, d *DB, username string) *model.Account {
	t.Helper()
	hash, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	acc, err := d.CreateAccount(context.Background(), username, hash)
	require.NoError(t, err)
	return acc
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "secret"))
	assert.False(t, CheckPassword(hash, "Secret"))
	assert.False(t, CheckPassword(hash, ""))
}

func TestGetAccount(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	created := mustCreate(t, d, "alice")

	acc, err := d.GetAccount(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, created.ID, acc.ID)
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, 0, acc.LoggedIn)
	assert.Nil(t, acc.LoginTime)
	assert.Nil(t, acc.BannedUntil)
	assert.Equal(t, 0, acc.StaffLevel)

	// Точное совпадение: другой регистр — другой username.
	acc, err = d.GetAccount(ctx, "Alice")
	require.NoError(t, err)
	assert.Nil(t, acc)

	acc, err = d.GetAccount(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestClaimOwnership(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, d, "bob")

	claimed, err := d.ClaimOwnership(ctx, "bob", 7)
	require.NoError(t, err)
	assert.True(t, claimed)

	acc, err := d.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 7, acc.LoggedIn)
	require.NotNil(t, acc.LoginTime)

	// Повторный claim проигрывает: аккаунт уже занят.
	claimed, err = d.ClaimOwnership(ctx, "bob", 9)
	require.NoError(t, err)
	assert.False(t, claimed)

	acc, err = d.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 7, acc.LoggedIn, "losing claim must not change the owner")

	// Claim несуществующего аккаунта — false, не ошибка.
	claimed, err = d.ClaimOwnership(ctx, "nobody", 9)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimOwnership_Concurrent(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, d, "carol")

	// Два node пытаются занять аккаунт одновременно:
	// выиграть обязан ровно один.
	type result struct {
		claimed bool
		err     error
	}
	results := make(chan result, 2)
	for _, world := range []int{3, 9} {
		go func() {
			claimed, err := d.ClaimOwnership(ctx, "carol", world)
			results <- result{claimed, err}
		}()
	}

	wins := 0
	for range 2 {
		r := <-results
		require.NoError(t, r.err)
		if r.claimed {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestReleaseOwnership(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, d, "bob")
	claimed, err := d.ClaimOwnership(ctx, "bob", 7)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, d.ReleaseOwnership(ctx, "bob"))

	acc, err := d.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, acc.LoggedIn)
	assert.Nil(t, acc.LoginTime)
}

func TestReleaseWorld(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	for _, username := range []string{"a1", "a2", "b1"} {
		mustCreate(t, d, username)
	}
	for username, world := range map[string]int{"a1": 7, "a2": 7, "b1": 9} {
		claimed, err := d.ClaimOwnership(ctx, username, world)
		require.NoError(t, err)
		require.True(t, claimed)
	}

	released, err := d.ReleaseWorld(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	// После world_startup(7) ни один аккаунт не принадлежит node 7.
	for _, username := range []string{"a1", "a2"} {
		acc, err := d.GetAccount(ctx, username)
		require.NoError(t, err)
		assert.Equal(t, 0, acc.LoggedIn, "account %s", username)
		assert.Nil(t, acc.LoginTime, "account %s", username)
	}

	// Чужой node не задет.
	acc, err := d.GetAccount(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 9, acc.LoggedIn)
}

func TestSetBanAndMute(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, d, "dave")

	until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Millisecond)
	require.NoError(t, d.SetBan(ctx, "dave", until))
	require.NoError(t, d.SetMute(ctx, "dave", until))

	acc, err := d.GetAccount(ctx, "dave")
	require.NoError(t, err)
	require.NotNil(t, acc.BannedUntil)
	require.NotNil(t, acc.MutedUntil)
	assert.True(t, acc.BannedUntil.Equal(until))
	assert.True(t, acc.MutedUntil.Equal(until))
	assert.True(t, acc.Banned(time.Now()))
	assert.False(t, acc.Banned(until.Add(time.Second)))
}

func TestInsertSession(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	acc := mustCreate(t, d, "eve")

	s := model.Session{
		UUID:      "conn-1",
		AccountID: acc.ID,
		Profile:   "main",
		World:     7,
		CreatedAt: time.Now(),
		UID:       42,
		IP:        "10.0.0.5",
	}
	require.NoError(t, d.InsertSession(ctx, s))
	require.NoError(t, d.InsertSession(ctx, s), "the log is append-only, duplicates allowed")

	var count int
	err := d.pool.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE account_id = $1`, acc.ID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Ссылка на несуществующий аккаунт отвергается.
	bad := s
	bad.AccountID = 999999
	assert.Error(t, d.InsertSession(ctx, bad))
}
