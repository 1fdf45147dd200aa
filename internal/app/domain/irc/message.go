package irc

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrNoSpaceAfterTags            = errors.New("no space found after tags (no command/prefix)")
	ErrEmptyTagsDeclaration        = errors.New("no tags after @ sign")
	ErrNoSpaceAfterPrefix          = errors.New("no space found after prefix (no command)")
	ErrEmptyPrefixDeclaration      = errors.New("no prefix after : sign")
	ErrMalformedCommand            = errors.New("expected command to only consist of alphabetic or numeric characters")
	ErrTooManySpacesInMiddleParams = errors.New("expected only single spaces between middle parameters")
	ErrNewlinesInMessage           = errors.New("newlines are not permitted in raw IRC messages")
	ErrUnsafeMessage               = errors.New("message cannot be written as a single IRC line")
)

// ParseError reports the line that failed to parse together with one of the
// Err* sentinels above.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return "parse irc line " + quote(e.Line) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func quote(s string) string {
	const limit = 64
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return `"` + s + `"`
}

// Message is a single IRC line. Treat it as immutable once built; use Clone
// before modifying a message that has been shared.
type Message struct {
	Tags    Tags
	Prefix  *Prefix
	Command string
	Params  []string

	// trailing records that the last parameter was written with the ":"
	// sentinel even though it did not need one.
	trailing bool
}

// New builds an outbound message from a command and its parameters.
func New(command string, params ...string) *Message {
	return &Message{Command: command, Params: params}
}

func NewWithTags(tags Tags, command string, params ...string) *Message {
	return &Message{Tags: tags, Command: command, Params: params}
}

func Parse(line string) (*Message, error) {
	if strings.ContainsAny(line, "\r\n") {
		return nil, &ParseError{Line: line, Err: ErrNewlinesInMessage}
	}

	source := line
	msg := &Message{}

	if strings.HasPrefix(source, "@") {
		tagsPart, rest, found := strings.Cut(source[1:], " ")
		if !found {
			return nil, &ParseError{Line: line, Err: ErrNoSpaceAfterTags}
		}
		if tagsPart == "" {
			return nil, &ParseError{Line: line, Err: ErrEmptyTagsDeclaration}
		}
		msg.Tags = parseTags(tagsPart)
		source = rest
	}

	if strings.HasPrefix(source, ":") {
		prefixPart, rest, found := strings.Cut(source[1:], " ")
		if !found {
			return nil, &ParseError{Line: line, Err: ErrNoSpaceAfterPrefix}
		}
		if prefixPart == "" {
			return nil, &ParseError{Line: line, Err: ErrEmptyPrefixDeclaration}
		}
		msg.Prefix = parsePrefix(prefixPart)
		source = rest
	}

	command, params, hasParams := strings.Cut(source, " ")
	command = upperASCII(command)
	if !validCommand(command) {
		return nil, &ParseError{Line: line, Err: ErrMalformedCommand}
	}
	msg.Command = command

	if !hasParams {
		return msg, nil
	}

	rest := params
	for {
		if trailing, ok := strings.CutPrefix(rest, ":"); ok {
			msg.Params = append(msg.Params, trailing)
			msg.trailing = true
			break
		}

		param, next, more := strings.Cut(rest, " ")
		if param == "" {
			return nil, &ParseError{Line: line, Err: ErrTooManySpacesInMiddleParams}
		}
		msg.Params = append(msg.Params, param)
		if !more {
			break
		}
		rest = next
	}

	return msg, nil
}

// upperASCII folds only a-z so that non-ASCII letters stay invalid.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func validCommand(command string) bool {
	if command == "" {
		return false
	}

	alpha, digit := true, true
	for i := 0; i < len(command); i++ {
		c := command[i]
		if c < 'A' || c > 'Z' {
			alpha = false
		}
		if c < '0' || c > '9' {
			digit = false
		}
	}
	return alpha || digit
}

// Param returns the i-th parameter, if present.
func (m *Message) Param(i int) (string, bool) {
	if i < 0 || i >= len(m.Params) {
		return "", false
	}
	return m.Params[i], true
}

// Nick returns the prefix nick, or "" when the message has no user prefix.
func (m *Message) Nick() string {
	if m.Prefix == nil {
		return ""
	}
	return m.Prefix.Nick
}

func (m *Message) Clone() *Message {
	c := &Message{
		Tags:     m.Tags.clone(),
		Command:  m.Command,
		trailing: m.trailing,
	}
	if m.Prefix != nil {
		p := *m.Prefix
		c.Prefix = &p
	}
	if m.Params != nil {
		c.Params = append([]string(nil), m.Params...)
	}
	return c
}

// Validate reports ErrUnsafeMessage when String would not produce exactly one
// well-formed line, e.g. a CR, LF or NUL in a parameter or a middle parameter
// that would be read back as several.
func (m *Message) Validate() error {
	if !validCommand(m.Command) {
		return ErrUnsafeMessage
	}
	for i, param := range m.Params {
		if strings.ContainsAny(param, "\r\n\x00") {
			return ErrUnsafeMessage
		}
		if i < len(m.Params)-1 && (param == "" || strings.Contains(param, " ") || strings.HasPrefix(param, ":")) {
			return ErrUnsafeMessage
		}
	}
	for _, key := range m.Tags.Keys() {
		if key == "" || strings.ContainsAny(key, "\r\n\x00 ;=") {
			return ErrUnsafeMessage
		}
		if value, _ := m.Tags.Get(key); strings.Contains(value, "\x00") {
			return ErrUnsafeMessage
		}
	}
	if m.Prefix != nil && strings.ContainsAny(m.Prefix.String(), "\r\n\x00 ") {
		return ErrUnsafeMessage
	}
	return nil
}

// String formats the message in its wire form, without the line terminator.
func (m *Message) String() string {
	var b strings.Builder

	if m.Tags.Len() > 0 {
		b.WriteByte('@')
		m.Tags.writeTo(&b)
		b.WriteByte(' ')
	}

	if m.Prefix != nil {
		b.WriteByte(':')
		b.WriteString(m.Prefix.String())
		b.WriteByte(' ')
	}

	b.WriteString(m.Command)

	for i, param := range m.Params {
		last := i == len(m.Params)-1
		if param != "" && !strings.Contains(param, " ") && !strings.HasPrefix(param, ":") && !(last && m.trailing) {
			b.WriteByte(' ')
			b.WriteString(param)
			continue
		}

		b.WriteString(" :")
		b.WriteString(param)
		break
	}

	return b.String()
}

func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Raw     string            `json:"raw"`
		Tags    map[string]string `json:"tags"`
		Prefix  *Prefix           `json:"prefix"`
		Command string            `json:"command"`
		Params  []string          `json:"params"`
	}{
		Raw:     m.String(),
		Tags:    m.Tags.Map(),
		Prefix:  m.Prefix,
		Command: m.Command,
		Params:  m.Params,
	})
}
