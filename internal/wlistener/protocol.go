package wlistener

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/udisondev/worldgate/internal/coordinator"
)

// Wire format: newline-delimited JSON, один конверт на строку.
// Конверт самоописывающийся: поле type выбирает вариант, остальные
// поля зависят от варианта. Времена — unix millis.

// envelope carries the discriminator; the body is re-parsed per type.
type envelope struct {
	Type string `json:"type"`
}

type worldStartupWire struct {
	World     int   `json:"nodeId"`
	WorldTime int64 `json:"nodeTime"`
}

type playerLoginWire struct {
	ReplyTo    string `json:"replyTo"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UID        int    `json:"uid"`
	Profile    string `json:"profile"`
	Socket     string `json:"socket"`
	RemoteAddr string `json:"remoteAddress"`
	World      int    `json:"nodeId"`
	WorldTime  int64  `json:"nodeTime"`
}

type playerLogoutWire struct {
	ReplyTo  string `json:"replyTo"`
	Username string `json:"username"`
	Save     []byte `json:"save"`
	Profile  string `json:"profile"`
}

type playerAutosaveWire struct {
	Username string `json:"username"`
	Save     []byte `json:"save"`
	Profile  string `json:"profile"`
}

type playerForceLogoutWire struct {
	Username string `json:"username"`
}

type playerPunishWire struct {
	Username string `json:"username"`
	Until    int64  `json:"until"`
}

type replyWire struct {
	ReplyTo    string `json:"replyTo"`
	Code       int    `json:"code"`
	StaffLevel int    `json:"staffLevel"`
	MutedUntil int64  `json:"mutedUntil,omitempty"`
	Save       []byte `json:"save,omitempty"`
}

// DecodeEvent parses one wire line into a typed coordinator event.
func DecodeEvent(line []byte) (coordinator.Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}

	switch env.Type {
	case "world_startup":
		var w worldStartupWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing world_startup: %w", err)
		}
		return coordinator.WorldStartup{
			World:     w.World,
			WorldTime: time.UnixMilli(w.WorldTime),
		}, nil

	case "player_login":
		var w playerLoginWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing player_login: %w", err)
		}
		return coordinator.PlayerLogin{
			ReplyTo:    w.ReplyTo,
			Username:   w.Username,
			Password:   w.Password,
			UID:        w.UID,
			Profile:    w.Profile,
			ConnID:     w.Socket,
			RemoteAddr: w.RemoteAddr,
			World:      w.World,
			WorldTime:  time.UnixMilli(w.WorldTime),
		}, nil

	case "player_logout":
		var w playerLogoutWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing player_logout: %w", err)
		}
		return coordinator.PlayerLogout{
			ReplyTo:  w.ReplyTo,
			Username: w.Username,
			Save:     w.Save,
			Profile:  w.Profile,
		}, nil

	case "player_autosave":
		var w playerAutosaveWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing player_autosave: %w", err)
		}
		return coordinator.PlayerAutosave{
			Username: w.Username,
			Save:     w.Save,
			Profile:  w.Profile,
		}, nil

	case "player_force_logout":
		var w playerForceLogoutWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing player_force_logout: %w", err)
		}
		return coordinator.PlayerForceLogout{Username: w.Username}, nil

	case "player_ban":
		var w playerPunishWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing player_ban: %w", err)
		}
		return coordinator.PlayerBan{
			Username: w.Username,
			Until:    time.UnixMilli(w.Until),
		}, nil

	case "player_mute":
		var w playerPunishWire
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, fmt.Errorf("parsing player_mute: %w", err)
		}
		return coordinator.PlayerMute{
			Username: w.Username,
			Until:    time.UnixMilli(w.Until),
		}, nil

	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

// EncodeReply serializes a reply as one wire line, newline included.
func EncodeReply(r *coordinator.Reply) ([]byte, error) {
	w := replyWire{
		ReplyTo:    r.ReplyTo,
		Code:       int(r.Code),
		StaffLevel: r.StaffLevel,
		Save:       r.Save,
	}
	if r.MutedUntil != nil {
		w.MutedUntil = r.MutedUntil.UnixMilli()
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding reply: %w", err)
	}
	return append(data, '\n'), nil
}
