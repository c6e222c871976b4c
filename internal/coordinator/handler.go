// Package coordinator implements the session-coordination state
// machine: login, logout, autosave, forced logout, ban, mute and
// world-restart recovery against the shared account record.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/worldgate/internal/config"
	"github.com/udisondev/worldgate/internal/db"
	"github.com/udisondev/worldgate/internal/model"
	"github.com/udisondev/worldgate/internal/save"
)

// Handler processes world-node events. Singleton — один на сервер.
type Handler struct {
	accounts AccountStore
	saves    SaveStore
	cfg      config.Coordinator
}

// NewHandler creates an event handler.
func NewHandler(accounts AccountStore, saves SaveStore, cfg config.Coordinator) *Handler {
	return &Handler{
		accounts: accounts,
		saves:    saves,
		cfg:      cfg,
	}
}

// Handle dispatches an event to the appropriate transition. Returns
// nil Reply for fire-and-forget events. A returned error means the
// event was dropped: the listener logs it and the connection lives on.
func (h *Handler) Handle(ctx context.Context, ev Event) (*Reply, error) {
	switch ev := ev.(type) {
	case WorldStartup:
		return nil, h.handleWorldStartup(ctx, ev)
	case PlayerLogin:
		return h.handlePlayerLogin(ctx, ev)
	case PlayerLogout:
		return h.handlePlayerLogout(ctx, ev)
	case PlayerAutosave:
		return nil, h.handlePlayerAutosave(ctx, ev)
	case PlayerForceLogout:
		return nil, h.accounts.ReleaseOwnership(ctx, ev.Username)
	case PlayerBan:
		return nil, h.accounts.SetBan(ctx, ev.Username, ev.Until)
	case PlayerMute:
		return nil, h.accounts.SetMute(ctx, ev.Username, ev.Until)
	default:
		return nil, fmt.Errorf("unhandled event type %T", ev)
	}
}

// handleWorldStartup releases every account the restarted node owned.
func (h *Handler) handleWorldStartup(ctx context.Context, ev WorldStartup) error {
	released, err := h.accounts.ReleaseWorld(ctx, ev.World)
	if err != nil {
		return err
	}
	slog.Info("world started", "world", ev.World, "released_sessions", released)
	return nil
}

// handlePlayerLogin выполняет алгоритм входа: учётные данные → бан →
// журнал сессий → ownership → сохранение.
func (h *Handler) handlePlayerLogin(ctx context.Context, ev PlayerLogin) (*Reply, error) {
	acc, err := h.accounts.GetAccount(ctx, ev.Username)
	if err != nil {
		return nil, err
	}

	if acc == nil && h.cfg.AutoCreateAccounts {
		hash, err := db.HashPassword(ev.Password, h.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		if _, err := h.accounts.CreateAccount(ctx, ev.Username, hash); err != nil {
			return nil, err
		}
		return &Reply{ReplyTo: ev.ReplyTo, Code: CodeOKNoSave}, nil
	}

	if acc == nil || !db.CheckPassword(acc.PasswordHash, ev.Password) {
		slog.Warn("invalid credentials", "username", ev.Username, "world", ev.World, "ip", ev.RemoteAddr)
		return &Reply{ReplyTo: ev.ReplyTo, Code: CodeInvalidCredentials}, nil
	}

	// Забаненный вход не попадает в журнал сессий.
	if acc.Banned(time.Now()) {
		slog.Warn("banned login attempt", "username", ev.Username, "until", acc.BannedUntil, "ip", ev.RemoteAddr)
		return &Reply{ReplyTo: ev.ReplyTo, Code: CodeBanned}, nil
	}

	// Журналируется каждая попытка, прошедшая проверки, независимо
	// от исхода ownership.
	err = h.accounts.InsertSession(ctx, model.Session{
		UUID:      ev.ConnID,
		AccountID: acc.ID,
		Profile:   ev.Profile,
		World:     ev.World,
		CreatedAt: time.Now(),
		UID:       ev.UID,
		IP:        ev.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	switch {
	case acc.LoggedIn == ev.World:
		// Реконнект к тому же node: ownership и login_time не трогаем.
		return &Reply{ReplyTo: ev.ReplyTo, Code: CodeReconnect}, nil
	case acc.LoggedIn != 0:
		return &Reply{ReplyTo: ev.ReplyTo, Code: CodeInUse}, nil
	}

	claimed, err := h.accounts.ClaimOwnership(ctx, ev.Username, ev.World)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Проиграли гонку другому node между чтением и UPDATE.
		slog.Warn("lost ownership race", "username", ev.Username, "world", ev.World)
		return &Reply{ReplyTo: ev.ReplyTo, Code: CodeInUse}, nil
	}

	blob, err := h.saves.Load(ev.Profile, ev.Username)
	if errors.Is(err, save.ErrNotFound) {
		return &Reply{
			ReplyTo:    ev.ReplyTo,
			Code:       CodeOKNoSave,
			StaffLevel: acc.StaffLevel,
			MutedUntil: acc.MutedUntil,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	slog.Info("login ok", "username", ev.Username, "world", ev.World, "profile", ev.Profile)
	return &Reply{
		ReplyTo:    ev.ReplyTo,
		Code:       CodeOK,
		StaffLevel: acc.StaffLevel,
		MutedUntil: acc.MutedUntil,
		Save:       blob,
	}, nil
}

// handlePlayerLogout writes the final save if it verifies, then
// releases ownership. The release and the code 0 reply do not depend
// on the save outcome: a corrupt blob must never block a world node
// from completing shutdown.
func (h *Handler) handlePlayerLogout(ctx context.Context, ev PlayerLogout) (*Reply, error) {
	h.storeVerified(ev.Username, ev.Profile, ev.Save)

	if err := h.accounts.ReleaseOwnership(ctx, ev.Username); err != nil {
		return nil, err
	}
	return &Reply{ReplyTo: ev.ReplyTo, Code: CodeOK}, nil
}

// handlePlayerAutosave conditionally writes the save. Ownership is
// untouched.
func (h *Handler) handlePlayerAutosave(_ context.Context, ev PlayerAutosave) error {
	h.storeVerified(ev.Username, ev.Profile, ev.Save)
	return nil
}

// storeVerified пишет блоб только после структурной проверки.
// Проваленная проверка не фатальна: предыдущее сохранение остаётся.
func (h *Handler) storeVerified(username, profile string, blob []byte) {
	if err := save.Verify(blob); err != nil {
		slog.Warn("save verification failed, write skipped", "username", username, "profile", profile, "err", err)
		return
	}
	if err := h.saves.Store(profile, username, blob); err != nil {
		slog.Error("save write failed", "username", username, "profile", profile, "err", err)
	}
}
