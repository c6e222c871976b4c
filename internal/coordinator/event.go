package coordinator

import "time"

// Event — закрытое множество событий протокола. Каждый вариант
// соответствует одному типу конверта от world node; диспетчеризация
// в Handler.Handle исчерпывающая, новый вариант без ветки — ошибка
// на этапе ревью, а не в рантайме.
type Event interface {
	event()
}

// WorldStartup is sent once by a world process on boot. The node has
// lost all in-memory session state, so every account it owned must be
// released.
type WorldStartup struct {
	World     int
	WorldTime time.Time
}

// PlayerLogin requests authentication and session ownership for one
// player on behalf of a world node.
type PlayerLogin struct {
	ReplyTo    string
	Username   string
	Password   string
	UID        int
	Profile    string
	ConnID     string // node-assigned client connection id
	RemoteAddr string
	World      int
	WorldTime  time.Time
}

// PlayerLogout releases session ownership and offers a final save.
type PlayerLogout struct {
	ReplyTo  string
	Username string
	Save     []byte
	Profile  string
}

// PlayerAutosave offers a periodic save. Fire-and-forget: no reply,
// no ownership change.
type PlayerAutosave struct {
	Username string
	Save     []byte
	Profile  string
}

// PlayerForceLogout administratively releases ownership. No reply.
type PlayerForceLogout struct {
	Username string
}

// PlayerBan sets banned_until. No reply.
type PlayerBan struct {
	Username string
	Until    time.Time
}

// PlayerMute sets muted_until. No reply.
type PlayerMute struct {
	Username string
	Until    time.Time
}

func (WorldStartup) event() {}
func (PlayerLogin) event() {}
func (PlayerLogout) event() {}
func (PlayerAutosave) event() {}
func (PlayerForceLogout) event() {}
func (PlayerBan) event() {}
func (PlayerMute) event() {}
