package coordinator

import "time"

// Code — код ответа на login/logout. Значения зафиксированы wire
// протоколом, world node обязан обрабатывать все шесть.
type Code int

const (
	// CodeOK — успешный вход, блоб сохранения приложен.
	CodeOK Code = 0
	// CodeInvalidCredentials — аккаунт не найден или пароль не подошёл.
	CodeInvalidCredentials Code = 1
	// CodeReconnect — аккаунт уже занят тем же world node.
	CodeReconnect Code = 2
	// CodeInUse — аккаунт занят другим world node.
	CodeInUse Code = 3
	// CodeOKNoSave — успешный вход без сохранения (новый аккаунт
	// или первый вход в профиль).
	CodeOKNoSave Code = 4
	// CodeBanned — бан ещё действует.
	CodeBanned Code = 5
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case CodeReconnect:
		return "RECONNECT"
	case CodeInUse:
		return "IN_USE"
	case CodeOKNoSave:
		return "OK_NO_SAVE"
	case CodeBanned:
		return "BANNED"
	default:
		return "UNKNOWN"
	}
}

// Reply is the typed response to a login or logout event. ReplyTo
// echoes the correlation id supplied by the world node.
type Reply struct {
	ReplyTo    string
	Code       Code
	StaffLevel int
	MutedUntil *time.Time
	Save       []byte
}
