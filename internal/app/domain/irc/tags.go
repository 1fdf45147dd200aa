package irc

import (
	"strings"
)

type tag struct {
	key   string
	value string
	bare  bool // written as "key" without "="
}

// Tags is an ordered set of IRCv3 message tags. Iteration and formatting
// follow insertion order.
type Tags struct {
	entries []tag
	index   map[string]int
}

func NewTags() Tags {
	return Tags{}
}

// TagsFrom builds tags from alternating key/value pairs.
func TagsFrom(pairs ...string) Tags {
	var t Tags
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Set(pairs[i], pairs[i+1])
	}
	return t
}

func (t *Tags) Set(key, value string) {
	t.set(key, value, false)
}

func (t *Tags) set(key, value string, bare bool) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].value = value
		t.entries[i].bare = bare
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, tag{key: key, value: value, bare: bare})
}

// Get returns the decoded value of key and whether it was present at all.
// A present tag may carry an empty value.
func (t Tags) Get(key string) (string, bool) {
	i, ok := t.index[key]
	if !ok {
		return "", false
	}
	return t.entries[i].value, true
}

func (t Tags) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

func (t Tags) Len() int {
	return len(t.entries)
}

func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Map returns a copy of the tags as a plain map.
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t.entries))
	for _, e := range t.entries {
		m[e.key] = e.value
	}
	return m
}

func (t Tags) clone() Tags {
	if len(t.entries) == 0 {
		return Tags{}
	}
	c := Tags{
		entries: make([]tag, len(t.entries)),
		index:   make(map[string]int, len(t.index)),
	}
	copy(c.entries, t.entries)
	for k, v := range t.index {
		c.index[k] = v
	}
	return c
}

func parseTags(source string) Tags {
	var t Tags
	for _, raw := range strings.Split(source, ";") {
		key, value, found := strings.Cut(raw, "=")
		if !found {
			t.set(key, "", true)
			continue
		}
		t.set(key, decodeTagValue(value), false)
	}
	return t
}

func (t Tags) writeTo(b *strings.Builder) {
	for i, e := range t.entries {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(e.key)
		if e.bare && e.value == "" {
			continue
		}
		b.WriteByte('=')
		b.WriteString(encodeTagValue(e.value))
	}
}

func decodeTagValue(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))

	escaped := false
	for _, r := range raw {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(r)
			continue
		}

		escaped = false
		switch r {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case '\\':
			b.WriteByte('\\')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteRune(r)
		}
	}
	// a dangling backslash is dropped

	return b.String()
}

var tagValueEscaper = strings.NewReplacer(
	`;`, `\:`,
	` `, `\s`,
	`\`, `\\`,
	"\r", `\r`,
	"\n", `\n`,
)

func encodeTagValue(value string) string {
	return tagValueEscaper.Replace(value)
}
