package message

import (
	"encoding/json"
	"time"
	"twitchchat/internal/app/domain/irc"
)

// UserNoticeEvent is the typed payload of a USERNOTICE, selected by its
// msg-id tag. Unrecognised ids produce UnknownEvent.
type UserNoticeEvent interface {
	EventType() string
	userNoticeEvent()
}

type Announcement struct {
	Color string `json:"color"`
}

type SubOrResub struct {
	IsResub          bool    `json:"is_resub"`
	CumulativeMonths uint64  `json:"cumulative_months"`
	StreakMonths     *uint64 `json:"streak_months"`
	SubPlan          string  `json:"sub_plan"`
	SubPlanName      string  `json:"sub_plan_name"`
}

type Raid struct {
	ViewerCount     uint64 `json:"viewer_count"`
	ProfileImageURL string `json:"profile_image_url"`
}

type SubGift struct {
	IsSenderAnonymous bool      `json:"is_sender_anonymous"`
	CumulativeMonths  uint64    `json:"cumulative_months"`
	Recipient         BasicUser `json:"recipient"`
	SubPlan           string    `json:"sub_plan"`
	SubPlanName       string    `json:"sub_plan_name"`
	NumGiftedMonths   uint64    `json:"num_gifted_months"`
}

type SubMysteryGift struct {
	MassGiftCount    uint64  `json:"mass_gift_count"`
	SenderTotalGifts *uint64 `json:"sender_total_gifts"`
	SubPlan          string  `json:"sub_plan"`
}

type AnonSubMysteryGift struct {
	MassGiftCount uint64 `json:"mass_gift_count"`
	SubPlan       string `json:"sub_plan"`
}

type SubGiftPromo struct {
	TotalGifts uint64 `json:"total_gifts"`
	PromoName  string `json:"promo_name"`
}

type GiftPaidUpgrade struct {
	GifterLogin string        `json:"gifter_login"`
	GifterName  string        `json:"gifter_name"`
	Promotion   *SubGiftPromo `json:"promotion"`
}

type AnonGiftPaidUpgrade struct {
	Promotion *SubGiftPromo `json:"promotion"`
}

type Ritual struct {
	RitualName string `json:"ritual_name"`
}

type BitsBadgeTier struct {
	Threshold uint64 `json:"threshold"`
}

type UnknownEvent struct{}

func (Announcement) EventType() string        { return "announcement" }
func (SubOrResub) EventType() string          { return "sub_or_resub" }
func (Raid) EventType() string                { return "raid" }
func (SubGift) EventType() string             { return "sub_gift" }
func (SubMysteryGift) EventType() string      { return "sub_mystery_gift" }
func (AnonSubMysteryGift) EventType() string  { return "anon_sub_mystery_gift" }
func (GiftPaidUpgrade) EventType() string     { return "gift_paid_upgrade" }
func (AnonGiftPaidUpgrade) EventType() string { return "anon_gift_paid_upgrade" }
func (Ritual) EventType() string              { return "ritual" }
func (BitsBadgeTier) EventType() string       { return "bits_badge_tier" }
func (UnknownEvent) EventType() string        { return "unknown" }

func (Announcement) userNoticeEvent()        {}
func (SubOrResub) userNoticeEvent()          {}
func (Raid) userNoticeEvent()                {}
func (SubGift) userNoticeEvent()             {}
func (SubMysteryGift) userNoticeEvent()      {}
func (AnonSubMysteryGift) userNoticeEvent()  {}
func (GiftPaidUpgrade) userNoticeEvent()     {}
func (AnonGiftPaidUpgrade) userNoticeEvent() {}
func (Ritual) userNoticeEvent()              {}
func (BitsBadgeTier) userNoticeEvent()       {}
func (UnknownEvent) userNoticeEvent()        {}

// UserNotice announces subscriptions, gifts, raids and similar channel
// events. MessageText is the optional user-provided part.
type UserNotice struct {
	base
	ChannelLogin    string          `json:"channel_login"`
	ChannelID       string          `json:"channel_id"`
	Sender          BasicUser       `json:"sender"`
	MessageText     *string         `json:"message_text"`
	SystemMessage   string          `json:"system_message"`
	Event           UserNoticeEvent `json:"-"`
	EventID         string          `json:"event_id"`
	BadgeInfo       []Badge         `json:"badge_info"`
	Badges          []Badge         `json:"badges"`
	Emotes          []Emote         `json:"emotes"`
	NameColor       string          `json:"name_color"`
	MessageID       string          `json:"message_id"`
	ServerTimestamp time.Time       `json:"server_timestamp"`
}

func NewUserNotice(src *irc.Message) (*UserNotice, error) {
	if err := checkCommand(src, "USERNOTICE"); err != nil {
		return nil, err
	}
	f := newFields(src)

	sender := BasicUser{
		ID:    f.nonEmptyTag("user-id"),
		Login: f.nonEmptyTag("login"),
		Name:  f.nonEmptyTag("display-name"),
	}
	eventID := f.nonEmptyTag("msg-id")
	if f.err != nil {
		return nil, f.err
	}

	event := userNoticeEvent(f, eventID, sender)

	text := f.optionalParam(1)
	emotes := []Emote{}
	if text != nil {
		emotes = f.emotes("emotes", *text)
	}

	// announcements may omit system-msg and carry the text as the parameter
	systemMessage, ok := src.Tags.Get("system-msg")
	if (!ok || systemMessage == "") && eventID == "announcement" {
		systemMessage = f.param(1)
	} else {
		systemMessage = f.nonEmptyTag("system-msg")
	}

	m := &UserNotice{
		base:            base{src},
		ChannelLogin:    f.channelLogin(),
		ChannelID:       f.nonEmptyTag("room-id"),
		Sender:          sender,
		MessageText:     text,
		SystemMessage:   systemMessage,
		Event:           event,
		EventID:         eventID,
		BadgeInfo:       f.badges("badge-info"),
		Badges:          f.badges("badges"),
		Emotes:          emotes,
		NameColor:       f.color("color"),
		MessageID:       f.nonEmptyTag("id"),
		ServerTimestamp: f.timestamp("tmi-sent-ts"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return m, nil
}

func userNoticeEvent(f *fields, eventID string, sender BasicUser) UserNoticeEvent {
	anonymousSender := sender.ID == AnonymousGifterID

	switch {
	case eventID == "announcement":
		return Announcement{Color: f.nonEmptyTag("msg-param-color")}

	case eventID == "sub" || eventID == "resub":
		e := SubOrResub{
			IsResub:          eventID == "resub",
			CumulativeMonths: f.number("msg-param-cumulative-months"),
		}
		if f.flag("msg-param-should-share-streak") {
			streak := f.number("msg-param-streak-months")
			e.StreakMonths = &streak
		}
		e.SubPlan = f.nonEmptyTag("msg-param-sub-plan")
		e.SubPlanName = f.nonEmptyTag("msg-param-sub-plan-name")
		return e

	case eventID == "raid":
		return Raid{
			ViewerCount:     f.number("msg-param-viewerCount"),
			ProfileImageURL: f.nonEmptyTag("msg-param-profileImageURL"),
		}

	case eventID == "subgift" || eventID == "anonsubgift":
		return SubGift{
			IsSenderAnonymous: eventID == "anonsubgift" || anonymousSender,
			CumulativeMonths:  f.number("msg-param-months"),
			Recipient: BasicUser{
				ID:    f.nonEmptyTag("msg-param-recipient-id"),
				Login: f.nonEmptyTag("msg-param-recipient-user-name"),
				Name:  f.nonEmptyTag("msg-param-recipient-display-name"),
			},
			SubPlan:         f.nonEmptyTag("msg-param-sub-plan"),
			SubPlanName:     f.nonEmptyTag("msg-param-sub-plan-name"),
			NumGiftedMonths: f.number("msg-param-gift-months"),
		}

	case (anonymousSender && eventID == "submysterygift") || eventID == "anonsubmysterygift":
		return AnonSubMysteryGift{
			MassGiftCount: f.number("msg-param-mass-gift-count"),
			SubPlan:       f.nonEmptyTag("msg-param-sub-plan"),
		}

	case eventID == "submysterygift":
		e := SubMysteryGift{MassGiftCount: f.number("msg-param-mass-gift-count")}
		if sender.Login != "twitch" {
			total := f.number("msg-param-sender-count")
			e.SenderTotalGifts = &total
		} else {
			e.SenderTotalGifts = lenientNumber(f.src, "msg-param-sender-count")
		}
		e.SubPlan = f.nonEmptyTag("msg-param-sub-plan")
		return e

	case eventID == "giftpaidupgrade":
		return GiftPaidUpgrade{
			GifterLogin: f.nonEmptyTag("msg-param-sender-login"),
			GifterName:  f.nonEmptyTag("msg-param-sender-name"),
			Promotion:   subGiftPromo(f),
		}

	case eventID == "anongiftpaidupgrade":
		return AnonGiftPaidUpgrade{Promotion: subGiftPromo(f)}

	case eventID == "ritual":
		return Ritual{RitualName: f.nonEmptyTag("msg-param-ritual-name")}

	case eventID == "bitsbadgetier":
		return BitsBadgeTier{Threshold: f.number("msg-param-threshold")}
	}

	return UnknownEvent{}
}

// subGiftPromo is only present when both promo tags are.
func subGiftPromo(f *fields) *SubGiftPromo {
	total := f.optionalNumber("msg-param-promo-gift-total")
	name := f.optionalNonEmptyTag("msg-param-promo-name")
	if total == nil || name == nil {
		return nil
	}
	return &SubGiftPromo{TotalGifts: *total, PromoName: *name}
}

// lenientNumber reads a numeric tag, treating any problem as absence.
func lenientNumber(src *irc.Message, key string) *uint64 {
	f := newFields(src)
	n := f.number(key)
	if f.err != nil {
		return nil
	}
	return &n
}

func (m *UserNotice) MarshalJSON() ([]byte, error) {
	type alias UserNotice

	event := m.Event
	if event == nil {
		event = UnknownEvent{}
	}
	eventJSON, err := tagged(event.EventType(), nil, event)
	if err != nil {
		return nil, err
	}

	return tagged("usernotice", m.source, struct {
		*alias
		Event json.RawMessage `json:"event"`
	}{
		alias: (*alias)(m),
		Event: eventJSON,
	})
}
