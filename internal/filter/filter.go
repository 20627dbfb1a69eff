package filter

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/listmsg/mailman-bridge/internal/model"
)

// Snapshot is the immutable configuration the filter evaluates against.
// It is built once at startup and is safe for concurrent use: nothing
// here mutates after New.
type Snapshot struct {
	exclusions     map[string]struct{}
	ownedDomains   map[string]struct{}
	archiveBaseURL string
}

// New builds a Snapshot from the loaded configuration values. Blank
// entries are dropped; domains are matched case-insensitively.
func New(excludedLists, ownedDomains []string, archiveBaseURL string) Snapshot {
	s := Snapshot{
		exclusions:     make(map[string]struct{}, len(excludedLists)),
		ownedDomains:   make(map[string]struct{}, len(ownedDomains)),
		archiveBaseURL: strings.TrimSpace(archiveBaseURL),
	}
	for _, id := range excludedLists {
		if id = strings.TrimSpace(id); id != "" {
			s.exclusions[id] = struct{}{}
		}
	}
	for _, d := range ownedDomains {
		if d = strings.TrimSpace(d); d != "" {
			s.ownedDomains[strings.ToLower(d)] = struct{}{}
		}
	}
	return s
}

// ShouldPublish reports whether events for the given list id may be
// published. Exact string membership, no wildcard or prefix matching.
func (s Snapshot) ShouldPublish(listID string) bool {
	_, excluded := s.exclusions[listID]
	return !excluded
}

// ExtractUsername splits the address at the final "@" and returns the
// local part when the domain is one of the owned domains. Most senders
// are not on owned domains, so a false return is the normal case, not
// an error.
func (s Snapshot) ExtractUsername(address string) (string, bool) {
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", false
	}
	local, domain := address[:at], address[at+1:]
	if _, ok := s.ownedDomains[strings.ToLower(domain)]; !ok {
		return "", false
	}
	return local, true
}

// BuildArchiveURL returns the archive permalink for a message, or false
// when no archive base URL is configured. The template follows the
// HyperKitty layout: <base>/list/<list-id>/message/<message-id>/ with
// the message id stripped of angle brackets and path-escaped. The
// result is a deterministic function of its inputs.
func (s Snapshot) BuildArchiveURL(listID, messageID string) (string, bool) {
	if s.archiveBaseURL == "" {
		return "", false
	}
	base := strings.TrimRight(s.archiveBaseURL, "/")
	id := strings.Trim(messageID, "<>")
	return base + "/list/" + listID + "/message/" + url.PathEscape(id) + "/", true
}

// archiveURL resolves the payload URL for an event. An absolute
// archived-at header wins; a relative one is joined to the base URL;
// otherwise the permalink template applies.
func (s Snapshot) archiveURL(event model.ArchiveEvent) string {
	archivedAt := strings.Trim(strings.TrimSpace(event.Header("archived-at")), "<>")
	if strings.HasPrefix(archivedAt, "http") {
		return archivedAt
	}
	if archivedAt != "" && s.archiveBaseURL != "" {
		return strings.TrimRight(s.archiveBaseURL, "/") + "/" + strings.TrimLeft(archivedAt, "/")
	}
	if u, ok := s.BuildArchiveURL(event.MList.ListID, event.MessageID); ok {
		return u
	}
	return ""
}

// ExtractUsernames collects usernames for the From, To and Cc addresses
// on owned domains. The list's own posting address is skipped.
func (s Snapshot) ExtractUsernames(event model.ArchiveEvent) []string {
	usernames := make([]string, 0, 3)
	for _, header := range []string{"from", "to", "cc"} {
		address := addressFromHeader(event.Header(header))
		if address == "" || address == event.MList.FQDNListname {
			continue
		}
		if u, ok := s.ExtractUsername(address); ok {
			usernames = append(usernames, u)
		}
	}
	return usernames
}

// Recipients returns the addresses from the To and Cc headers.
func Recipients(event model.ArchiveEvent) []string {
	recipients := make([]string, 0, 2)
	for _, header := range []string{"to", "cc"} {
		if address := addressFromHeader(event.Header(header)); address != "" {
			recipients = append(recipients, address)
		}
	}
	return recipients
}

// BuildPayload decides inclusion and assembles the outgoing record.
// A false return means the event must not be published. The function is
// pure: identical inputs yield identical payloads, and no field is ever
// an error condition when absent.
func (s Snapshot) BuildPayload(event model.ArchiveEvent) (*model.NotificationPayload, bool) {
	if !s.ShouldPublish(event.MList.ListID) {
		return nil, false
	}

	msg := make(map[string]string, len(model.MetadataHeaders))
	for _, h := range model.MetadataHeaders {
		if v := event.Header(h); v != "" {
			msg[h] = v
		}
	}

	p := &model.NotificationPayload{
		Msg:        msg,
		MList:      event.MList,
		URL:        s.archiveURL(event),
		Usernames:  s.ExtractUsernames(event),
		Recipients: Recipients(event),
	}
	if sender := addressFromHeader(event.Sender); sender != "" {
		if u, ok := s.ExtractUsername(sender); ok {
			p.SenderUsername = u
		}
	}
	return p, true
}

// addressFromHeader pulls the bare address out of a header value like
// `Alice <alice@example.com>`. Malformed values yield "".
func addressFromHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return ""
	}
	return addr.Address
}
