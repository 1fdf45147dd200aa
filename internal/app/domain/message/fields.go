package message

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"twitchchat/internal/app/domain/irc"
)

// fields reads validated values out of a raw message. The first failure is
// kept in err and every later read becomes a no-op returning a zero value.
type fields struct {
	src *irc.Message
	err error
}

func newFields(src *irc.Message) *fields {
	return &fields{src: src}
}

func (f *fields) fail(err error, tag, value string, index int) {
	if f.err != nil {
		return
	}
	f.err = &ParseError{Err: err, Source: f.src, Tag: tag, Value: value, Index: index}
}

func (f *fields) param(index int) string {
	if f.err != nil {
		return ""
	}
	v, ok := f.src.Param(index)
	if !ok {
		f.fail(ErrMissingParameter, "", "", index)
		return ""
	}
	return v
}

func (f *fields) optionalParam(index int) *string {
	if f.err != nil {
		return nil
	}
	v, ok := f.src.Param(index)
	if !ok {
		return nil
	}
	return &v
}

// messageText returns parameter 1 with a CTCP ACTION wrapper removed.
func (f *fields) messageText() (string, bool) {
	text := f.param(1)
	if f.err != nil {
		return "", false
	}
	return splitAction(text)
}

func splitAction(text string) (string, bool) {
	const prefix = "\x01ACTION "
	if len(text) >= len(prefix)+1 && strings.HasPrefix(text, prefix) && strings.HasSuffix(text, "\x01") {
		return text[len(prefix) : len(text)-1], true
	}
	return text, false
}

func (f *fields) tag(key string) string {
	if f.err != nil {
		return ""
	}
	v, ok := f.src.Tags.Get(key)
	if !ok {
		f.fail(ErrMissingTag, key, "", 0)
		return ""
	}
	return v
}

func (f *fields) nonEmptyTag(key string) string {
	v := f.tag(key)
	if f.err == nil && v == "" {
		f.fail(ErrMissingTagValue, key, "", 0)
	}
	return v
}

// optionalNonEmptyTag returns nil for an absent tag. A present but empty tag
// is an error.
func (f *fields) optionalNonEmptyTag(key string) *string {
	if f.err != nil || !f.src.Tags.Has(key) {
		return nil
	}
	v := f.nonEmptyTag(key)
	if f.err != nil {
		return nil
	}
	return &v
}

func (f *fields) channelLogin() string {
	p := f.param(0)
	if f.err != nil {
		return ""
	}
	if !strings.HasPrefix(p, "#") || len(p) < 2 {
		f.fail(ErrMalformedChannel, "", "", 0)
		return ""
	}
	return p[1:]
}

// optionalChannelLogin treats "*" as no channel.
func (f *fields) optionalChannelLogin() *string {
	p := f.param(0)
	if f.err != nil || p == "*" {
		return nil
	}
	login := f.channelLogin()
	if f.err != nil {
		return nil
	}
	return &login
}

func (f *fields) prefixNick() string {
	if f.err != nil {
		return ""
	}
	switch {
	case f.src.Prefix == nil:
		f.fail(ErrMissingPrefix, "", "", 0)
	case f.src.Prefix.IsHostOnly():
		f.fail(ErrMissingNickname, "", "", 0)
	default:
		return f.src.Prefix.Nick
	}
	return ""
}

func (f *fields) color(key string) string {
	return f.tag(key)
}

func (f *fields) number(key string) uint64 {
	v := f.nonEmptyTag(key)
	if f.err != nil {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		f.fail(ErrMalformedTagValue, key, v, 0)
		return 0
	}
	return n
}

func (f *fields) optionalNumber(key string) *uint64 {
	if f.err != nil || !f.src.Tags.Has(key) {
		return nil
	}
	n := f.number(key)
	if f.err != nil {
		return nil
	}
	return &n
}

func (f *fields) optionalInt(key string) *int64 {
	v := f.optionalNonEmptyTag(key)
	if v == nil {
		return nil
	}
	n, err := strconv.ParseInt(*v, 10, 64)
	if err != nil {
		f.fail(ErrMalformedTagValue, key, *v, 0)
		return nil
	}
	return &n
}

// optionalDuration reads a count of unit. Counts that do not fit a
// time.Duration are malformed.
func (f *fields) optionalDuration(key string, unit time.Duration) *time.Duration {
	n := f.optionalNumber(key)
	if n == nil {
		return nil
	}
	if *n > uint64(math.MaxInt64/int64(unit)) {
		f.fail(ErrMalformedTagValue, key, f.tag(key), 0)
		return nil
	}
	d := time.Duration(*n) * unit
	return &d
}

func (f *fields) flag(key string) bool {
	v := f.nonEmptyTag(key)
	if f.err != nil {
		return false
	}
	n, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		f.fail(ErrMalformedTagValue, key, v, 0)
		return false
	}
	return n > 0
}

func (f *fields) optionalFlag(key string) *bool {
	if f.err != nil || !f.src.Tags.Has(key) {
		return nil
	}
	b := f.flag(key)
	if f.err != nil {
		return nil
	}
	return &b
}

func (f *fields) timestamp(key string) time.Time {
	ms := f.number(key)
	if f.err != nil {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func (f *fields) badges(key string) []Badge {
	v := f.tag(key)
	if f.err != nil || v == "" {
		return []Badge{}
	}

	badges := make([]Badge, 0, strings.Count(v, ",")+1)
	for _, src := range strings.Split(v, ",") {
		name, version, ok := strings.Cut(src, "/")
		if !ok {
			f.fail(ErrMalformedTagValue, key, v, 0)
			return []Badge{}
		}
		badges = append(badges, Badge{Name: name, Version: version})
	}
	return badges
}

func (f *fields) emoteSets(key string) []string {
	v := f.tag(key)
	if f.err != nil || v == "" {
		return []string{}
	}

	sets := make([]string, 0, strings.Count(v, ",")+1)
	for _, s := range strings.Split(v, ",") {
		if !slices.Contains(sets, s) {
			sets = append(sets, s)
		}
	}
	return sets
}

// emotes decodes "id:start-end,start-end/id2:start-end". Twitch sends
// inclusive end offsets counted in runes; ranges past the end of the text are
// clamped rather than rejected.
func (f *fields) emotes(key, text string) []Emote {
	v := f.tag(key)
	if f.err != nil || v == "" {
		return []Emote{}
	}

	runes := []rune(text)
	var emotes []Emote
	for _, src := range strings.Split(v, "/") {
		id, indices, ok := strings.Cut(src, ":")
		if !ok {
			f.fail(ErrMalformedTagValue, key, v, 0)
			return []Emote{}
		}

		for _, rangeSrc := range strings.Split(indices, ",") {
			startSrc, endSrc, ok := strings.Cut(rangeSrc, "-")
			if !ok {
				f.fail(ErrMalformedTagValue, key, v, 0)
				return []Emote{}
			}

			start, err1 := parseOffset(startSrc)
			end, err2 := parseOffset(endSrc)
			if err1 != nil || err2 != nil || end < start {
				f.fail(ErrMalformedTagValue, key, v, 0)
				return []Emote{}
			}
			end++

			emotes = append(emotes, Emote{
				ID:    id,
				Range: Range{Start: start, End: end},
				Code:  runeSlice(runes, start, end),
			})
		}
	}

	slices.SortStableFunc(emotes, func(a, b Emote) int {
		return a.Range.Start - b.Range.Start
	})
	return emotes
}

// parseOffset reads a rune offset. Offsets are capped at 32 bits so the
// exclusive end never overflows.
func parseOffset(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	return int(n), err
}

func runeSlice(runes []rune, start, end int) string {
	if start >= len(runes) {
		return ""
	}
	return string(runes[start:min(end, len(runes))])
}

func (f *fields) optionalReply() *Reply {
	if f.err != nil || !f.src.Tags.Has("reply-parent-msg-id") {
		return nil
	}

	r := &Reply{
		Parent: ReplyParent{
			MessageID: f.tag("reply-parent-msg-id"),
			User: BasicUser{
				ID:    f.nonEmptyTag("reply-parent-user-id"),
				Login: f.nonEmptyTag("reply-parent-user-login"),
				Name:  f.nonEmptyTag("reply-parent-display-name"),
			},
			MessageText: f.tag("reply-parent-msg-body"),
		},
		Thread: ReplyThread{
			MessageID: f.tag("reply-thread-parent-msg-id"),
			UserLogin: f.tag("reply-thread-parent-user-login"),
		},
	}
	if f.err != nil {
		return nil
	}
	return r
}
