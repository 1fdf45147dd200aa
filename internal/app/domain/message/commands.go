package message

import (
	"math"
	"time"
	"twitchchat/internal/app/domain/irc"
)

type ClearChatActionKind string

const (
	ChatCleared  ClearChatActionKind = "clear"
	UserBanned   ClearChatActionKind = "ban"
	UserTimedOut ClearChatActionKind = "timeout"
)

// ClearChatAction describes what a CLEARCHAT did. UserLogin and UserID are
// empty for ChatCleared; Duration is only set for UserTimedOut.
type ClearChatAction struct {
	Kind      ClearChatActionKind `json:"type"`
	UserLogin string              `json:"user_login,omitempty"`
	UserID    string              `json:"user_id,omitempty"`
	Duration  time.Duration       `json:"duration,omitempty"`
}

type ClearChat struct {
	base
	ChannelLogin    string          `json:"channel_login"`
	ChannelID       string          `json:"channel_id"`
	Action          ClearChatAction `json:"action"`
	ServerTimestamp time.Time       `json:"server_timestamp"`
}

func NewClearChat(src *irc.Message) (*ClearChat, error) {
	if err := checkCommand(src, "CLEARCHAT"); err != nil {
		return nil, err
	}
	f := newFields(src)

	action := ClearChatAction{Kind: ChatCleared}
	if login := f.optionalParam(1); login != nil {
		action.UserLogin = *login
		action.UserID = f.nonEmptyTag("target-user-id")
		action.Kind = UserBanned
		if d := f.optionalDuration("ban-duration", time.Second); d != nil {
			action.Kind = UserTimedOut
			action.Duration = *d
		}
	}

	m := &ClearChat{
		base:            base{src},
		Action:          action,
		ChannelLogin:    f.channelLogin(),
		ChannelID:       f.nonEmptyTag("room-id"),
		ServerTimestamp: f.timestamp("tmi-sent-ts"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *ClearChat) MarshalJSON() ([]byte, error) {
	type alias ClearChat
	return tagged("clearchat", m.source, (*alias)(m))
}

type ClearMsg struct {
	base
	ChannelLogin    string    `json:"channel_login"`
	ChannelID       string    `json:"channel_id"`
	SenderLogin     string    `json:"sender_login"`
	MessageID       string    `json:"message_id"`
	MessageText     string    `json:"message_text"`
	IsAction        bool      `json:"is_action"`
	ServerTimestamp time.Time `json:"server_timestamp"`
}

func NewClearMsg(src *irc.Message) (*ClearMsg, error) {
	if err := checkCommand(src, "CLEARMSG"); err != nil {
		return nil, err
	}
	f := newFields(src)

	text, isAction := f.messageText()
	m := &ClearMsg{
		base:            base{src},
		ChannelLogin:    f.channelLogin(),
		ChannelID:       f.nonEmptyTag("room-id"),
		SenderLogin:     f.nonEmptyTag("login"),
		MessageID:       f.nonEmptyTag("target-msg-id"),
		ServerTimestamp: f.timestamp("tmi-sent-ts"),
		MessageText:     text,
		IsAction:        isAction,
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *ClearMsg) MarshalJSON() ([]byte, error) {
	type alias ClearMsg
	return tagged("clearmsg", m.source, (*alias)(m))
}

type GlobalUserState struct {
	base
	UserID    string   `json:"user_id"`
	UserName  string   `json:"user_name"`
	BadgeInfo []Badge  `json:"badge_info"`
	Badges    []Badge  `json:"badges"`
	EmoteSets []string `json:"emote_sets"`
	NameColor string   `json:"name_color"`
}

func NewGlobalUserState(src *irc.Message) (*GlobalUserState, error) {
	if err := checkCommand(src, "GLOBALUSERSTATE"); err != nil {
		return nil, err
	}
	f := newFields(src)

	m := &GlobalUserState{
		base:      base{src},
		UserID:    f.nonEmptyTag("user-id"),
		UserName:  f.nonEmptyTag("display-name"),
		BadgeInfo: f.badges("badge-info"),
		Badges:    f.badges("badges"),
		EmoteSets: f.emoteSets("emote-sets"),
		NameColor: f.color("color"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *GlobalUserState) MarshalJSON() ([]byte, error) {
	type alias GlobalUserState
	return tagged("globaluserstate", m.source, (*alias)(m))
}

type Join struct {
	base
	ChannelLogin string `json:"channel_login"`
	UserLogin    string `json:"user_login"`
}

func NewJoin(src *irc.Message) (*Join, error) {
	if err := checkCommand(src, "JOIN"); err != nil {
		return nil, err
	}
	f := newFields(src)

	m := &Join{
		base:         base{src},
		ChannelLogin: f.channelLogin(),
		UserLogin:    f.prefixNick(),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *Join) MarshalJSON() ([]byte, error) {
	type alias Join
	return tagged("join", m.source, (*alias)(m))
}

type Part struct {
	base
	ChannelLogin string `json:"channel_login"`
	UserLogin    string `json:"user_login"`
}

func NewPart(src *irc.Message) (*Part, error) {
	if err := checkCommand(src, "PART"); err != nil {
		return nil, err
	}
	f := newFields(src)

	m := &Part{
		base:         base{src},
		ChannelLogin: f.channelLogin(),
		UserLogin:    f.prefixNick(),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *Part) MarshalJSON() ([]byte, error) {
	type alias Part
	return tagged("part", m.source, (*alias)(m))
}

// Notice is a server notice. ChannelLogin is nil for notices addressed to
// "*", which Twitch sends before the connection is authenticated.
type Notice struct {
	base
	ChannelLogin *string `json:"channel_login"`
	MessageText  string  `json:"message_text"`
	MessageID    *string `json:"message_id"`
}

func NewNotice(src *irc.Message) (*Notice, error) {
	if err := checkCommand(src, "NOTICE"); err != nil {
		return nil, err
	}
	f := newFields(src)

	m := &Notice{
		base:         base{src},
		ChannelLogin: f.optionalChannelLogin(),
		MessageText:  f.param(1),
		MessageID:    f.optionalNonEmptyTag("msg-id"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *Notice) MarshalJSON() ([]byte, error) {
	type alias Notice
	return tagged("notice", m.source, (*alias)(m))
}

type Ping struct {
	base
}

func NewPing(src *irc.Message) (*Ping, error) {
	if err := checkCommand(src, "PING"); err != nil {
		return nil, err
	}
	return &Ping{base{src}}, nil
}

func (m *Ping) MarshalJSON() ([]byte, error) {
	return tagged("ping", m.source, struct{}{})
}

type Pong struct {
	base
}

func NewPong(src *irc.Message) (*Pong, error) {
	if err := checkCommand(src, "PONG"); err != nil {
		return nil, err
	}
	return &Pong{base{src}}, nil
}

func (m *Pong) MarshalJSON() ([]byte, error) {
	return tagged("pong", m.source, struct{}{})
}

// Reconnect asks the client to reopen its connection; Twitch is about to
// restart the server it is connected to.
type Reconnect struct {
	base
}

func NewReconnect(src *irc.Message) (*Reconnect, error) {
	if err := checkCommand(src, "RECONNECT"); err != nil {
		return nil, err
	}
	return &Reconnect{base{src}}, nil
}

func (m *Reconnect) MarshalJSON() ([]byte, error) {
	return tagged("reconnect", m.source, struct{}{})
}

// FollowersOnlyMode is Disabled, or Enabled with the minimum follow age.
type FollowersOnlyMode struct {
	Enabled     bool          `json:"enabled"`
	MinFollowed time.Duration `json:"min_followed,omitempty"`
}

// RoomState reports a change of room settings. Only settings that changed are
// present; the first ROOMSTATE after joining carries all of them.
type RoomState struct {
	base
	ChannelLogin    string             `json:"channel_login"`
	ChannelID       string             `json:"channel_id"`
	EmoteOnly       *bool              `json:"emote_only"`
	FollowersOnly   *FollowersOnlyMode `json:"followers_only"`
	R9K             *bool              `json:"r9k"`
	SlowMode        *time.Duration     `json:"slow_mode"`
	SubscribersOnly *bool              `json:"subscribers_only"`
}

func NewRoomState(src *irc.Message) (*RoomState, error) {
	if err := checkCommand(src, "ROOMSTATE"); err != nil {
		return nil, err
	}
	f := newFields(src)

	m := &RoomState{
		base:         base{src},
		ChannelLogin: f.channelLogin(),
		ChannelID:    f.nonEmptyTag("room-id"),
		EmoteOnly:    f.optionalFlag("emote-only"),
	}

	if minutes := f.optionalInt("followers-only"); minutes != nil {
		mode := &FollowersOnlyMode{}
		if *minutes >= 0 {
			if *minutes > int64(math.MaxInt64/time.Minute) {
				f.fail(ErrMalformedTagValue, "followers-only", f.tag("followers-only"), 0)
			}
			mode.Enabled = true
			mode.MinFollowed = time.Duration(*minutes) * time.Minute
		}
		m.FollowersOnly = mode
	}

	m.R9K = f.optionalFlag("r9k")
	m.SlowMode = f.optionalDuration("slow", time.Second)
	m.SubscribersOnly = f.optionalFlag("subs-only")

	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *RoomState) MarshalJSON() ([]byte, error) {
	type alias RoomState
	return tagged("roomstate", m.source, (*alias)(m))
}

// Merge returns a copy of m with every setting that next carries applied.
func (m *RoomState) Merge(next *RoomState) *RoomState {
	merged := *m
	merged.source = next.source
	if next.EmoteOnly != nil {
		merged.EmoteOnly = next.EmoteOnly
	}
	if next.FollowersOnly != nil {
		merged.FollowersOnly = next.FollowersOnly
	}
	if next.R9K != nil {
		merged.R9K = next.R9K
	}
	if next.SlowMode != nil {
		merged.SlowMode = next.SlowMode
	}
	if next.SubscribersOnly != nil {
		merged.SubscribersOnly = next.SubscribersOnly
	}
	return &merged
}

type UserState struct {
	base
	ChannelLogin string   `json:"channel_login"`
	UserName     string   `json:"user_name"`
	BadgeInfo    []Badge  `json:"badge_info"`
	Badges       []Badge  `json:"badges"`
	EmoteSets    []string `json:"emote_sets"`
	NameColor    string   `json:"name_color"`
}

func NewUserState(src *irc.Message) (*UserState, error) {
	if err := checkCommand(src, "USERSTATE"); err != nil {
		return nil, err
	}
	f := newFields(src)

	m := &UserState{
		base:         base{src},
		ChannelLogin: f.channelLogin(),
		UserName:     f.nonEmptyTag("display-name"),
		BadgeInfo:    f.badges("badge-info"),
		Badges:       f.badges("badges"),
		EmoteSets:    f.emoteSets("emote-sets"),
		NameColor:    f.color("color"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *UserState) MarshalJSON() ([]byte, error) {
	type alias UserState
	return tagged("userstate", m.source, (*alias)(m))
}

type Whisper struct {
	base
	RecipientLogin string    `json:"recipient_login"`
	Sender         BasicUser `json:"sender"`
	MessageText    string    `json:"message_text"`
	NameColor      string    `json:"name_color"`
	Badges         []Badge   `json:"badges"`
	Emotes         []Emote   `json:"emotes"`
}

func NewWhisper(src *irc.Message) (*Whisper, error) {
	if err := checkCommand(src, "WHISPER"); err != nil {
		return nil, err
	}
	f := newFields(src)

	text := f.param(1)
	m := &Whisper{
		base:           base{src},
		Emotes:         f.emotes("emotes", text),
		RecipientLogin: f.param(0),
		Sender: BasicUser{
			ID:    f.nonEmptyTag("user-id"),
			Login: f.prefixNick(),
			Name:  f.nonEmptyTag("display-name"),
		},
		MessageText: text,
		NameColor:   f.color("color"),
		Badges:      f.badges("badges"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func (m *Whisper) MarshalJSON() ([]byte, error) {
	type alias Whisper
	return tagged("whisper", m.source, (*alias)(m))
}
