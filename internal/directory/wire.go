package directory

import (
	"fmt"
	"strconv"
	"strings"
)

// The TeamTalk 5 control protocol is line based: a message name followed by
// space-separated key=value parameters, strings double-quoted with backslash
// escapes.

type message struct {
	name   string
	fields map[string]string
}

func (m message) str(key string) string {
	return m.fields[key]
}

func (m message) num(key string) int64 {
	n, _ := strconv.ParseInt(m.fields[key], 10, 64)
	return n
}

func parseMessage(line string) message {
	line = strings.TrimRight(line, "\r\n")
	name, rest, _ := strings.Cut(line, " ")
	m := message{name: name, fields: make(map[string]string)}

	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " ")
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if len(rest) > 0 && rest[0] == '"' {
			value, rest = unquote(rest)
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				value, rest = rest, ""
			} else {
				value, rest = rest[:end], rest[end:]
			}
		}
		m.fields[key] = value
	}
	return m
}

// unquote consumes a leading quoted string and returns it with the remainder.
func unquote(s string) (string, string) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			i++
			continue
		}
		if c == '"' {
			return b.String(), s[i+1:]
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), ""
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// command renders a client command line. Parameters keep their given order.
type command struct {
	name   string
	params []param
}

type param struct {
	key   string
	value string
}

func (c command) with(key string, value any) command {
	var rendered string
	switch v := value.(type) {
	case string:
		rendered = quote(v)
	case bool:
		if v {
			rendered = "true"
		} else {
			rendered = "false"
		}
	default:
		rendered = fmt.Sprintf("%d", value)
	}
	c.params = append(c.params, param{key: key, value: rendered})
	return c
}

func (c command) render(id int64) string {
	var b strings.Builder
	b.WriteString(c.name)
	for _, p := range c.params {
		b.WriteByte(' ')
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	fmt.Fprintf(&b, " id=%d\r\n", id)
	return b.String()
}
