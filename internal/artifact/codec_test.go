package artifact

import (
	"strings"
	"testing"
)

var sampleParams = ConnectionParams{
	Host:       "tt.example.org",
	TCPPort:    10333,
	UDPPort:    10333,
	Encrypted:  true,
	ServerName: "Example Talk",
	Username:   "alice",
	Password:   "p@ss word",
	Nickname:   "Alice",
	Channel:    "/",
}

func TestConfigFileRoundTrip(t *testing.T) {
	data, err := EncodeConfigFile(sampleParams)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Fatalf("missing XML header: %q", data[:20])
	}
	if !strings.Contains(string(data), "<verify-peer>false</verify-peer>") {
		t.Fatal("missing trusted-certificate block")
	}

	parsed, err := ParseConfigFile(data)
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if parsed != sampleParams {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", parsed, sampleParams)
	}
}

func TestLinkRoundTrip(t *testing.T) {
	link := EncodeLink(sampleParams)
	if !strings.HasPrefix(link, "tt://tt.example.org?") {
		t.Fatalf("unexpected link prefix: %q", link)
	}
	if !strings.Contains(link, "&encrypted=1&") {
		t.Fatalf("encrypted flag should render as 1/0: %q", link)
	}

	parsed, err := ParseLink(link)
	if err != nil {
		t.Fatalf("parsing link: %v", err)
	}

	want := sampleParams
	want.ServerName = "" // the link does not carry a display name
	if parsed != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", parsed, want)
	}
}

func TestLinkDefaultsChannelToRoot(t *testing.T) {
	p := sampleParams
	p.Channel = ""

	parsed, err := ParseLink(EncodeLink(p))
	if err != nil {
		t.Fatalf("parsing link: %v", err)
	}
	if parsed.Channel != "/" {
		t.Fatalf("expected root channel, got %q", parsed.Channel)
	}
}

func TestParseLinkRejectsOtherSchemes(t *testing.T) {
	if _, err := ParseLink("https://example.org?tcpport=1"); err == nil {
		t.Fatal("expected an error for non-tt scheme")
	}
}
