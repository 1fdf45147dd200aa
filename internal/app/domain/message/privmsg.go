package message

import (
	"time"
	"twitchchat/internal/app/domain/irc"
)

// Privmsg is a chat message posted to a channel.
type Privmsg struct {
	base
	ChannelLogin       string    `json:"channel_login"`
	ChannelID          string    `json:"channel_id"`
	MessageText        string    `json:"message_text"`
	Reply              *Reply    `json:"reply"`
	IsAction           bool      `json:"is_action"`
	IsFirstMessage     bool      `json:"is_first_msg"`
	IsReturningChatter bool      `json:"is_returning_chatter"`
	IsHighlighted      bool      `json:"is_highlighted"`
	Sender             BasicUser `json:"sender"`
	BadgeInfo          []Badge   `json:"badge_info"`
	Badges             []Badge   `json:"badges"`
	Bits               *uint64   `json:"bits"`
	NameColor          string    `json:"name_color"`
	Emotes             []Emote   `json:"emotes"`
	MessageID          string    `json:"message_id"`
	ServerTimestamp    time.Time `json:"server_timestamp"`
}

func NewPrivmsg(src *irc.Message) (*Privmsg, error) {
	if err := checkCommand(src, "PRIVMSG"); err != nil {
		return nil, err
	}
	f := newFields(src)

	text, isAction := f.messageText()
	msgID, _ := src.Tags.Get("msg-id")

	m := &Privmsg{
		base:         base{src},
		ChannelLogin: f.channelLogin(),
		ChannelID:    f.nonEmptyTag("room-id"),
		Sender: BasicUser{
			ID:    f.nonEmptyTag("user-id"),
			Login: f.prefixNick(),
			Name:  f.nonEmptyTag("display-name"),
		},
		BadgeInfo:       f.badges("badge-info"),
		Badges:          f.badges("badges"),
		Bits:            f.optionalNumber("bits"),
		NameColor:       f.color("color"),
		Emotes:          f.emotes("emotes", text),
		ServerTimestamp: f.timestamp("tmi-sent-ts"),
		MessageID:       f.nonEmptyTag("id"),
		MessageText:     text,
		Reply:           f.optionalReply(),
		IsAction:        isAction,
		IsHighlighted:   msgID == "highlighted-message",
	}

	if first := f.optionalFlag("first-msg"); first != nil {
		m.IsFirstMessage = *first
	}
	if returning := f.optionalFlag("returning-chatter"); returning != nil {
		m.IsReturningChatter = *returning
	}

	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *Privmsg) MarshalJSON() ([]byte, error) {
	type alias Privmsg
	return tagged("privmsg", m.source, (*alias)(m))
}
