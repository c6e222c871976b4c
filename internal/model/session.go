package model

import "time"

// Session — append-only запись одной попытки входа.
// UUID — идентификатор клиентского соединения, присвоенный world node.
// Строки никогда не обновляются и не удаляются.
type Session struct {
	UUID      string
	AccountID int64
	Profile   string
	World     int
	CreatedAt time.Time
	UID       int
	IP        string
}
