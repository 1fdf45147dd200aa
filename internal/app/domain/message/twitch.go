package message

// AnonymousGifterID is the user id Twitch uses for gifts sent by an
// anonymous user.
const AnonymousGifterID = "274598607"

type BasicUser struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type Badge struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Range is a half-open interval of rune offsets into a message text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Emote struct {
	ID    string `json:"id"`
	Range Range  `json:"range"`
	Code  string `json:"code"`
}

type ReplyParent struct {
	MessageID   string    `json:"message_id"`
	MessageText string    `json:"message_text"`
	User        BasicUser `json:"user"`
}

type ReplyThread struct {
	MessageID string `json:"message_id"`
	UserLogin string `json:"user_login"`
}

type Reply struct {
	Parent ReplyParent `json:"parent"`
	Thread ReplyThread `json:"thread"`
}
