package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"twitchchat/internal/app/domain/irc"
)

// ServerMessage is one of ClearChat, ClearMsg, GlobalUserState, Join, Notice,
// Part, Ping, Pong, Privmsg, Reconnect, RoomState, UserNotice, UserState,
// Whisper or Generic. All of them are returned as pointers.
type ServerMessage interface {
	Source() *irc.Message
	serverMessage()
}

type base struct {
	source *irc.Message
}

func (b base) Source() *irc.Message { return b.source }

func (base) serverMessage() {}

// Generic carries any line whose command has no dedicated variant.
type Generic struct {
	base
}

func (m *Generic) MarshalJSON() ([]byte, error) {
	return tagged("generic", m.source, struct{}{})
}

func NewGeneric(src *irc.Message) *Generic {
	return &Generic{base{src}}
}

// Parse builds the typed variant for src. Unknown commands become Generic;
// a known command with missing or malformed data returns a *ParseError.
func Parse(src *irc.Message) (ServerMessage, error) {
	var (
		msg ServerMessage
		err error
	)

	switch src.Command {
	case "CLEARCHAT":
		msg, err = NewClearChat(src)
	case "CLEARMSG":
		msg, err = NewClearMsg(src)
	case "GLOBALUSERSTATE":
		msg, err = NewGlobalUserState(src)
	case "JOIN":
		msg, err = NewJoin(src)
	case "NOTICE":
		msg, err = NewNotice(src)
	case "PART":
		msg, err = NewPart(src)
	case "PING":
		msg, err = NewPing(src)
	case "PONG":
		msg, err = NewPong(src)
	case "PRIVMSG":
		msg, err = NewPrivmsg(src)
	case "RECONNECT":
		msg, err = NewReconnect(src)
	case "ROOMSTATE":
		msg, err = NewRoomState(src)
	case "USERNOTICE":
		msg, err = NewUserNotice(src)
	case "USERSTATE":
		msg, err = NewUserState(src)
	case "WHISPER":
		msg, err = NewWhisper(src)
	default:
		return NewGeneric(src), nil
	}

	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ParseLenient is Parse that never fails: a line that does not satisfy its
// variant is returned as Generic together with the reason.
func ParseLenient(src *irc.Message) (ServerMessage, error) {
	msg, err := Parse(src)
	if err != nil {
		return NewGeneric(src), err
	}
	return msg, nil
}

func checkCommand(src *irc.Message, command string) error {
	if src.Command == command {
		return nil
	}
	return &ParseError{Err: ErrMismatchedCommand, Source: src}
}

// IsMismatched reports whether err only signals that a constructor was given
// a line for another variant.
func IsMismatched(err error) bool {
	return errors.Is(err, ErrMismatchedCommand)
}

// tagged renders v as a JSON object prefixed with a "type" key and, when
// source is set, suffixed with the raw source.
func tagged(kind string, source *irc.Message, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	kindJSON, _ := json.Marshal(kind)

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(kindJSON)

	body = bytes.TrimSpace(body)
	if inner := body[1 : len(body)-1]; len(bytes.TrimSpace(inner)) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}

	if source != nil {
		src, err := json.Marshal(source)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"source":`)
		buf.Write(src)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
