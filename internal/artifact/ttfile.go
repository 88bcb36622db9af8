// Package artifact produces and serves the connection artifacts handed to a
// freshly registered user: the .tt connection file, the tt:// quick-connect
// link, and the preconfigured client bundle.
package artifact

import (
	"encoding/xml"
	"fmt"
)

// ConnectionParams is everything a TeamTalk client needs to reach the server
// with a specific account.
type ConnectionParams struct {
	Host            string
	TCPPort         int
	UDPPort         int
	Encrypted       bool
	ServerName      string
	Username        string
	Password        string
	Nickname        string
	Channel         string
	ChannelPassword string
}

type ttFile struct {
	XMLName xml.Name `xml:"teamtalk"`
	Version string   `xml:"version,attr"`
	Host    ttHost   `xml:"host"`
}

type ttHost struct {
	Name        string        `xml:"name"`
	Address     string        `xml:"address"`
	Password    string        `xml:"password"`
	TCPPort     int           `xml:"tcpport"`
	UDPPort     int           `xml:"udpport"`
	Encrypted   bool          `xml:"encrypted"`
	TrustedCert ttTrustedCert `xml:"trusted-certificate"`
	Auth        ttAuth        `xml:"auth"`
	Join        *ttJoin       `xml:"join"`
}

// ttTrustedCert is emitted empty with verify-peer off; encrypted servers
// present self-signed certificates the client cannot verify anyway.
type ttTrustedCert struct {
	CertificateAuthorityPEM string `xml:"certificate-authority-pem"`
	ClientCertificatePEM    string `xml:"client-certificate-pem"`
	ClientPrivateKeyPEM     string `xml:"client-private-key-pem"`
	VerifyPeer              bool   `xml:"verify-peer"`
}

type ttAuth struct {
	Username string `xml:"username"`
	Password string `xml:"password"`
	Nickname string `xml:"nickname,omitempty"`
}

type ttJoin struct {
	Channel  string `xml:"channel"`
	Password string `xml:"password"`
}

// EncodeConfigFile renders a .tt connection file for the given parameters.
func EncodeConfigFile(p ConnectionParams) ([]byte, error) {
	file := ttFile{
		Version: "5.0",
		Host: ttHost{
			Name:      p.ServerName,
			Address:   p.Host,
			TCPPort:   p.TCPPort,
			UDPPort:   p.UDPPort,
			Encrypted: p.Encrypted,
			Auth: ttAuth{
				Username: p.Username,
				Password: p.Password,
				Nickname: p.Nickname,
			},
		},
	}
	if p.Channel != "" {
		file.Host.Join = &ttJoin{Channel: p.Channel, Password: p.ChannelPassword}
	}

	data, err := xml.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding connection file: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// ParseConfigFile decodes a .tt connection file back into its parameters.
// Parsing what EncodeConfigFile produced yields the original values.
func ParseConfigFile(data []byte) (ConnectionParams, error) {
	var file ttFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return ConnectionParams{}, fmt.Errorf("parsing connection file: %w", err)
	}

	p := ConnectionParams{
		Host:       file.Host.Address,
		TCPPort:    file.Host.TCPPort,
		UDPPort:    file.Host.UDPPort,
		Encrypted:  file.Host.Encrypted,
		ServerName: file.Host.Name,
		Username:   file.Host.Auth.Username,
		Password:   file.Host.Auth.Password,
		Nickname:   file.Host.Auth.Nickname,
	}
	if file.Host.Join != nil {
		p.Channel = file.Host.Join.Channel
		p.ChannelPassword = file.Host.Join.Password
	}
	return p, nil
}
