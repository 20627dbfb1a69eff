package model

// NotificationPayload is the record published to the bus for one
// archived email. Created per message, handed to the publisher, then
// discarded; nothing here is persisted.
type NotificationPayload struct {
	ID             string            `json:"id"` // event ULID
	Msg            map[string]string `json:"msg"`
	MList          ListInfo          `json:"mlist"`
	URL            string            `json:"url,omitempty"`
	SenderUsername string            `json:"sender_username,omitempty"`
	Usernames      []string          `json:"usernames"`
	Recipients     []string          `json:"recipients"`
}
