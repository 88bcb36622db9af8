package artifact

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EncodeLink renders the tt:// quick-connect link for the given parameters.
// Query parameters are emitted in a fixed order so the output is stable.
func EncodeLink(p ConnectionParams) string {
	channel := p.Channel
	if channel == "" {
		channel = "/"
	}

	var b strings.Builder
	b.WriteString("tt://")
	b.WriteString(p.Host)
	b.WriteString("?tcpport=")
	b.WriteString(strconv.Itoa(p.TCPPort))
	b.WriteString("&udpport=")
	b.WriteString(strconv.Itoa(p.UDPPort))
	// clients expect 1/0 here, not true/false
	b.WriteString("&encrypted=")
	if p.Encrypted {
		b.WriteString("1")
	} else {
		b.WriteString("0")
	}
	b.WriteString("&username=")
	b.WriteString(url.QueryEscape(p.Username))
	b.WriteString("&password=")
	b.WriteString(url.QueryEscape(p.Password))
	b.WriteString("&nickname=")
	b.WriteString(url.QueryEscape(p.Nickname))
	b.WriteString("&channel=")
	b.WriteString(url.QueryEscape(channel))
	b.WriteString("&chanpasswd=")
	b.WriteString(url.QueryEscape(p.ChannelPassword))
	return b.String()
}

// ParseLink decodes a tt:// link back into connection parameters.
func ParseLink(raw string) (ConnectionParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ConnectionParams{}, fmt.Errorf("parsing connect link: %w", err)
	}
	if u.Scheme != "tt" {
		return ConnectionParams{}, fmt.Errorf("parsing connect link: unexpected scheme %q", u.Scheme)
	}

	q := u.Query()
	p := ConnectionParams{
		Host:            u.Hostname(),
		Username:        q.Get("username"),
		Password:        q.Get("password"),
		Nickname:        q.Get("nickname"),
		Channel:         q.Get("channel"),
		ChannelPassword: q.Get("chanpasswd"),
	}
	if v := q.Get("tcpport"); v != "" {
		if p.TCPPort, err = strconv.Atoi(v); err != nil {
			return ConnectionParams{}, fmt.Errorf("parsing connect link: bad tcpport %q", v)
		}
	}
	if v := q.Get("udpport"); v != "" {
		if p.UDPPort, err = strconv.Atoi(v); err != nil {
			return ConnectionParams{}, fmt.Errorf("parsing connect link: bad udpport %q", v)
		}
	}
	if v := q.Get("encrypted"); v != "" {
		if p.Encrypted, err = strconv.ParseBool(v); err != nil {
			return ConnectionParams{}, fmt.Errorf("parsing connect link: bad encrypted %q", v)
		}
	}
	return p, nil
}
