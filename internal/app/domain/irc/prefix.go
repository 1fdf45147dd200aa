package irc

import (
	"strings"
)

// Prefix identifies the sender of a message. A prefix without an '@' is
// host-only (e.g. ":tmi.twitch.tv").
type Prefix struct {
	Nick string `json:"nick,omitempty"`
	User string `json:"user,omitempty"`
	Host string `json:"host,omitempty"`

	// full and hasUser record whether the parsed source carried '@' and '!'
	// so that empty parts survive formatting.
	full    bool
	hasUser bool
}

func (p *Prefix) IsHostOnly() bool {
	return !p.full && p.Nick == ""
}

func parsePrefix(source string) *Prefix {
	nickAndUser, host, found := strings.Cut(source, "@")
	if !found {
		return &Prefix{Host: source}
	}

	nick, user, hasUser := strings.Cut(nickAndUser, "!")
	return &Prefix{Nick: nick, User: user, Host: host, full: true, hasUser: hasUser}
}

func (p *Prefix) String() string {
	if p.IsHostOnly() {
		return p.Host
	}

	var b strings.Builder
	b.WriteString(p.Nick)
	if p.Host != "" || p.full {
		if p.User != "" || p.hasUser {
			b.WriteByte('!')
			b.WriteString(p.User)
		}
		b.WriteByte('@')
		b.WriteString(p.Host)
	}
	return b.String()
}
