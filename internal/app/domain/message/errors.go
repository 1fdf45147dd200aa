package message

import (
	"errors"
	"fmt"
	"twitchchat/internal/app/domain/irc"
)

var (
	// ErrMismatchedCommand is returned by a variant constructor given a line
	// with another command. Parse uses it to fall through to Generic.
	ErrMismatchedCommand = errors.New("command is not parsed by this variant")
	ErrMissingTag        = errors.New("missing tag")
	ErrMissingTagValue   = errors.New("missing tag value")
	ErrMalformedTagValue = errors.New("malformed tag value")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrMalformedChannel  = errors.New("malformed channel parameter (# must be present + something after it)")
	ErrMissingPrefix     = errors.New("missing prefix altogether")
	ErrMissingNickname   = errors.New("no nickname found in prefix")
)

// ParseError describes why a line could not be turned into a typed message.
// Tag, Value and Index are set depending on Err.
type ParseError struct {
	Err    error
	Source *irc.Message
	Tag    string
	Value  string
	Index  int
}

func (e *ParseError) Error() string {
	var detail string
	switch e.Err {
	case ErrMissingTag:
		detail = fmt.Sprintf("no tag present under key `%s`", e.Tag)
	case ErrMissingTagValue:
		detail = fmt.Sprintf("no tag value present under key `%s`", e.Tag)
	case ErrMalformedTagValue:
		detail = fmt.Sprintf("malformed tag value for tag `%s`, value was `%s`", e.Tag, e.Value)
	case ErrMissingParameter:
		detail = fmt.Sprintf("no parameter found at index %d", e.Index)
	default:
		detail = e.Err.Error()
	}

	return fmt.Sprintf("could not parse IRC message %q as server message: %s", e.Source.String(), detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
