package models

import "time"

// Registration is the committed link between an external chat identity and a
// TeamTalk account. One registrant gets at most one account, ever.
type Registration struct {
	RegistrantID    int64
	AccountUsername string
	CreatedAt       time.Time
}

// SourceContext records where a registration request came from. It travels
// with a PendingRegistration so an admin decision made hours later can still
// notify the right person in the right language.
type SourceContext struct {
	Channel       string `json:"channel"` // "chat" or "web"
	Locale        string `json:"locale"`
	RequesterID   int64  `json:"requester_id,omitempty"`
	RequesterName string `json:"requester_name,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
	// RegisteredByAdminID is set when an admin proxy-registers someone else.
	RegisteredByAdminID int64  `json:"registered_by_admin_id,omitempty"`
	AccountType         string `json:"account_type,omitempty"`
}

type PendingRegistration struct {
	CorrelationKey  string
	RegistrantID    int64
	AccountUsername string
	Password        string
	Nickname        string
	Source          SourceContext
	CreatedAt       time.Time
}

type BannedIdentity struct {
	RegistrantID    int64
	AccountUsername *string
	BannedBy        *int64 // nil means the ban was automatic
	Reason          string
	BannedAt        time.Time
}

// Automatic reports whether the ban was written by the ban-propagation
// watcher rather than an admin.
func (b *BannedIdentity) Automatic() bool {
	return b.BannedBy == nil
}

type RegisteredIP struct {
	IPAddress       string
	AccountUsername *string
	RegisteredAt    time.Time
}

type ArtifactKind string

const (
	ArtifactConfigFile   ArtifactKind = "config_file"
	ArtifactClientBundle ArtifactKind = "client_bundle"
)

type DownloadToken struct {
	Token        string
	ServerPath   string
	UserFilename string
	Kind         ArtifactKind
	CreatedAt    time.Time
	ExpiresAt    time.Time
	IsUsed       bool
}
