package model

import "strings"

// MetadataHeaders is the whitelist of message headers copied into the
// outgoing payload. Anything else on the wire message is dropped.
var MetadataHeaders = []string{
	"archived-at",
	"delivered-to",
	"date",
	"from",
	"cc",
	"to",
	"in-reply-to",
	"message-id",
	"subject",
	"message-id-hash",
	"x-message-id-hash",
	"references",
	"x-mailman-rule-hits",
	"x-mailman-rule-misses",
	"user-agent",
}

// ListInfo describes the mailing list an event belongs to, as reported
// by the host. ListID is the dotted-domain identifier
// (e.g. "devel.lists.fedoraproject.org").
type ListInfo struct {
	ListID       string `json:"list_id"`
	ListName     string `json:"list_name"`
	MailHost     string `json:"mail_host"`
	FQDNListname string `json:"fqdn_listname"`
	DisplayName  string `json:"display_name"`
}

// ArchiveEvent is one archiver-hook invocation: the host calls the hook
// once per delivered email.
type ArchiveEvent struct {
	MList     ListInfo          `json:"mlist"`
	MessageID string            `json:"message_id"`
	Sender    string            `json:"sender"` // raw From header value
	Headers   map[string]string `json:"headers"`
}

// Header returns the named header value. Keys are matched on their
// canonical lower-case form regardless of how the host spelled them.
func (e ArchiveEvent) Header(name string) string {
	name = strings.ToLower(name)
	if v, ok := e.Headers[name]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.ToLower(k) == name {
			return v
		}
	}
	return ""
}
