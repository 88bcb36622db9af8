package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/artifact"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/registration"
)

type webStubDirectory struct {
	accounts  map[string]directory.NewAccount
	existsErr error
}

func (d *webStubDirectory) Exists(ctx context.Context, username string) (bool, error) {
	if d.existsErr != nil {
		return false, d.existsErr
	}
	_, ok := d.accounts[username]
	return ok, nil
}

func (d *webStubDirectory) Create(ctx context.Context, account directory.NewAccount) error {
	d.accounts[account.Username] = account
	return nil
}

func (d *webStubDirectory) Remove(ctx context.Context, username string) error {
	delete(d.accounts, username)
	return nil
}

func (d *webStubDirectory) List(ctx context.Context) ([]directory.Account, error) {
	return nil, nil
}

func (d *webStubDirectory) Broadcast(ctx context.Context, message string) error {
	return nil
}

type webStubIssuer struct {
	gotLocale string
}

func (s *webStubIssuer) Issue(username, password, nickname, locale string) (*artifact.Bundle, error) {
	s.gotLocale = locale
	return &artifact.Bundle{Link: "tt://tt.example.org?username=" + username}, nil
}

type webStubNotifier struct {
	adminTexts []string
}

func (n *webStubNotifier) NotifyAdmins(ctx context.Context, text string, excludeID int64) {
	n.adminTexts = append(n.adminTexts, text)
}

func (n *webStubNotifier) AlertAdmins(ctx context.Context, text string) {}

type registerFixture struct {
	handler  *RegistrationHandler
	dir      *webStubDirectory
	issuer   *webStubIssuer
	notifier *webStubNotifier
}

func newRegisterFixture(t *testing.T, requireApproval bool) *registerFixture {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{}
	cfg.Server.Host = "tt.example.org"
	cfg.Server.Name = "Example Talk"
	cfg.Registration.AdminLanguage = "en"
	cfg.Registration.DefaultUserRights = config.DefaultUserRights
	cfg.Registration.RequireApproval = requireApproval

	dir := &webStubDirectory{accounts: make(map[string]directory.NewAccount)}
	issuer := &webStubIssuer{}
	notifier := &webStubNotifier{}

	registrations := db.NewRegistrationRepository(database)
	registeredIPs := db.NewRegisteredIPRepository(database)

	committer := registration.NewCommitter(cfg, dir, registrations, registeredIPs, issuer, notifier)

	resolver, err := NewClientIPResolver(nil)
	if err != nil {
		t.Fatalf("NewClientIPResolver error: %v", err)
	}

	return &registerFixture{
		handler:  NewRegistrationHandler(cfg, dir, committer, registeredIPs, resolver),
		dir:      dir,
		issuer:   issuer,
		notifier: notifier,
	}
}

func postJSON(fx *registerFixture, remoteAddr, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	fx.handler.Register(rec, req)
	return rec
}

func TestRegisterCreatesAccount(t *testing.T) {
	fx := newRegisterFixture(t, false)

	rec := postJSON(fx, "203.0.113.7:43210", `{"username":"alice","password":"secret","language":"ru"}`)
	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp registerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "registered" || resp.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.Link, "tt://") {
		t.Fatalf("link = %q", resp.Link)
	}

	account, ok := fx.dir.accounts["alice"]
	if !ok {
		t.Fatal("account not created")
	}
	// omitted nickname falls back to the username
	if account.Nickname != "alice" {
		t.Fatalf("nickname = %q, want %q", account.Nickname, "alice")
	}
	if fx.issuer.gotLocale != "ru" {
		t.Fatalf("locale = %q, want %q", fx.issuer.gotLocale, "ru")
	}
}

func TestRegisterAcceptsFormBody(t *testing.T) {
	fx := newRegisterFixture(t, false)

	form := url.Values{
		"username": {"  bob  "},
		"password": {"hunter2"},
		"nickname": {"Bobby"},
	}
	req := httptest.NewRequest("POST", "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.7:43210"
	rec := httptest.NewRecorder()
	fx.handler.Register(rec, req)

	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	account, ok := fx.dir.accounts["bob"]
	if !ok {
		t.Fatal("username should be trimmed before account creation")
	}
	if account.Nickname != "Bobby" {
		t.Fatalf("nickname = %q, want %q", account.Nickname, "Bobby")
	}
}

func TestRegisterRejectsMissingPassword(t *testing.T) {
	fx := newRegisterFixture(t, false)

	rec := postJSON(fx, "203.0.113.7:43210", `{"username":"alice"}`)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Error.Code != ErrCodeInvalidRequest {
		t.Fatalf("code = %q, want %q", resp.Error.Code, ErrCodeInvalidRequest)
	}
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	fx := newRegisterFixture(t, false)
	fx.dir.accounts["alice"] = directory.NewAccount{Username: "alice"}

	rec := postJSON(fx, "203.0.113.7:43210", `{"username":"alice","password":"secret"}`)
	if rec.Code != 409 {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != ErrCodeUsernameTaken {
		t.Fatalf("code = %q, want %q", resp.Error.Code, ErrCodeUsernameTaken)
	}
}

func TestRegisterFailedAvailabilityCheckIsNotAConflict(t *testing.T) {
	fx := newRegisterFixture(t, false)
	fx.dir.existsErr = context.DeadlineExceeded

	rec := postJSON(fx, "203.0.113.7:43210", `{"username":"alice","password":"secret"}`)
	if rec.Code != 502 {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != ErrCodeUsernameCheck {
		t.Fatalf("code = %q, want %q", resp.Error.Code, ErrCodeUsernameCheck)
	}
}

func TestRegisterOnePerAddress(t *testing.T) {
	fx := newRegisterFixture(t, false)

	if rec := postJSON(fx, "203.0.113.7:43210", `{"username":"alice","password":"secret"}`); rec.Code != 201 {
		t.Fatalf("first registration: status = %d, want 201", rec.Code)
	}

	rec := postJSON(fx, "203.0.113.7:55555", `{"username":"bob","password":"secret"}`)
	if rec.Code != 409 {
		t.Fatalf("second registration: status = %d, want 409", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != ErrCodeAlreadyRegistered {
		t.Fatalf("code = %q, want %q", resp.Error.Code, ErrCodeAlreadyRegistered)
	}

	// a different address still goes through
	if rec := postJSON(fx, "198.51.100.9:43210", `{"username":"bob","password":"secret"}`); rec.Code != 201 {
		t.Fatalf("other address: status = %d, want 201", rec.Code)
	}
}

// Web registrants have no channel to receive artifacts after the fact, so the
// approval gate does not apply to them: the response must carry the artifacts
// even when approval is required for chat.
func TestRegisterDeliversArtifactsDespiteApprovalMode(t *testing.T) {
	fx := newRegisterFixture(t, true)

	rec := postJSON(fx, "203.0.113.7:43210", `{"username":"alice","password":"secret"}`)
	if rec.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp registerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "registered" || !strings.HasPrefix(resp.Link, "tt://") {
		t.Fatalf("artifacts not delivered in the response: %+v", resp)
	}
	if _, ok := fx.dir.accounts["alice"]; !ok {
		t.Fatal("account not created")
	}

	// the admins still hear about it
	var found bool
	for _, text := range fx.notifier.adminTexts {
		if strings.Contains(text, "alice") && strings.Contains(text, "203.0.113.7") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no admin summary for the web registration: %v", fx.notifier.adminTexts)
	}
}

func TestShowFormRendersServerName(t *testing.T) {
	fx := newRegisterFixture(t, false)

	rec := httptest.NewRecorder()
	fx.handler.ShowForm(rec, httptest.NewRequest("GET", "/register", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Example Talk") {
		t.Fatal("form should carry the server name")
	}
}
