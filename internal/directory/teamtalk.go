package directory

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
)

const (
	userTypeDefault = 1
	userTypeAdmin   = 2

	// broadcast text message type on the wire
	messageTypeBroadcast = 3
)

var ErrDisconnected = errors.New("not connected to server")

// serverError is a protocol-level rejection from the server.
type serverError struct {
	Number  int64
	Message string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Number, e.Message)
}

type reply struct {
	lines []message
	err   error
}

// TeamTalk is a Directory backed by a live TeamTalk 5 server connection. It
// logs in with the configured bot account, correlates command replies by id,
// and pumps account events into an Events fan-out.
type TeamTalk struct {
	cfg    *config.Config
	events *Events

	mu      sync.Mutex
	conn    net.Conn
	writer  *bufio.Writer
	nextID  int64
	pending map[int64]chan reply
	closed  bool
}

func NewTeamTalk(cfg *config.Config, events *Events) *TeamTalk {
	return &TeamTalk{
		cfg:     cfg,
		events:  events,
		pending: make(map[int64]chan reply),
	}
}

// Connect dials the server, logs the bot in, and starts the read and
// keepalive loops. The connection stays up until Close or a read error.
func (t *TeamTalk) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", t.cfg.Server.Host, t.cfg.Server.TCPPort)

	var (
		conn net.Conn
		err  error
	)
	dialer := &net.Dialer{Timeout: 15 * time.Second}
	if t.cfg.Server.Encrypted {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
			ServerName:         t.cfg.Server.Host,
			InsecureSkipVerify: true, // TeamTalk servers run self-signed certs
		})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}

	reader := bufio.NewReader(conn)

	// The server greets with a welcome line before accepting commands.
	conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	line, err := reader.ReadString('\n')
	if err != nil {
		conn.Close()
		return fmt.Errorf("reading server welcome: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	welcome := parseMessage(line)
	if welcome.name != "teamtalk" {
		conn.Close()
		return fmt.Errorf("unexpected server greeting %q", welcome.name)
	}

	t.mu.Lock()
	t.conn = conn
	t.writer = bufio.NewWriter(conn)
	t.closed = false
	t.mu.Unlock()

	go t.readLoop(reader)

	_, err = t.roundTrip(ctx, command{name: "login"}.
		with("username", t.cfg.Server.BotUsername).
		with("password", t.cfg.Server.BotPassword).
		with("nickname", t.cfg.Server.BotNickname).
		with("clientname", t.cfg.Server.ClientName).
		with("protocol", "5.6"))
	if err != nil {
		t.Close()
		return fmt.Errorf("logging in: %w", err)
	}

	keepalive := 30 * time.Second
	if timeout := welcome.num("usertimeout"); timeout > 1 {
		keepalive = time.Duration(timeout) * time.Second / 2
	}
	go t.pingLoop(ctx, keepalive)

	slog.Info("connected to server", "component", "directory", "addr", addr, "server", welcome.str("servername"))
	return nil
}

func (t *TeamTalk) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

func (t *TeamTalk) Exists(ctx context.Context, username string) (bool, error) {
	accounts, err := t.List(ctx)
	if err != nil {
		return false, err
	}
	for _, account := range accounts {
		if account.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (t *TeamTalk) Create(ctx context.Context, account NewAccount) error {
	userType := userTypeDefault
	if account.Type == AccountAdmin {
		userType = userTypeAdmin
	}

	cmd := command{name: "newaccount"}.
		with("username", account.Username).
		with("password", account.Password).
		with("usertype", userType)
	if account.Type != AccountAdmin {
		cmd = cmd.with("userrights", uint32(account.Rights))
	}
	if account.Nickname != "" {
		cmd = cmd.with("note", account.Nickname)
	}

	if _, err := t.roundTrip(ctx, cmd); err != nil {
		return fmt.Errorf("creating account %s: %w", account.Username, err)
	}
	t.events.EmitAccountCreated(account.Username)
	return nil
}

func (t *TeamTalk) Remove(ctx context.Context, username string) error {
	cmd := command{name: "delaccount"}.with("username", username)
	if _, err := t.roundTrip(ctx, cmd); err != nil {
		return fmt.Errorf("removing account %s: %w", username, err)
	}
	t.events.EmitAccountRemoved(username)
	return nil
}

func (t *TeamTalk) List(ctx context.Context) ([]Account, error) {
	lines, err := t.roundTrip(ctx, command{name: "listaccounts"})
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	var accounts []Account
	for _, m := range lines {
		if m.name != "useraccount" {
			continue
		}
		account := Account{Username: m.str("username"), Type: AccountUser}
		if m.num("usertype") == userTypeAdmin {
			account.Type = AccountAdmin
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (t *TeamTalk) Broadcast(ctx context.Context, text string) error {
	cmd := command{name: "message"}.
		with("type", messageTypeBroadcast).
		with("content", text)
	if _, err := t.roundTrip(ctx, cmd); err != nil {
		return fmt.Errorf("broadcasting message: %w", err)
	}
	return nil
}

// roundTrip sends one command and waits for its begin/end-delimited reply.
func (t *TeamTalk) roundTrip(ctx context.Context, cmd command) ([]message, error) {
	t.mu.Lock()
	if t.conn == nil || t.closed {
		t.mu.Unlock()
		return nil, ErrDisconnected
	}
	t.nextID++
	id := t.nextID
	ch := make(chan reply, 1)
	t.pending[id] = ch

	_, err := t.writer.WriteString(cmd.render(id))
	if err == nil {
		err = t.writer.Flush()
	}
	if err != nil {
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, fmt.Errorf("writing command: %w", err)
	}
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, ctx.Err()
	case r := <-ch:
		return r.lines, r.err
	}
}

func (t *TeamTalk) readLoop(reader *bufio.Reader) {
	var (
		currentID int64
		collected []message
		cmdErr    error
	)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.failAllPending(err)
			t.mu.Lock()
			wasClosed := t.closed
			t.mu.Unlock()
			if !wasClosed {
				slog.Error("server connection lost", "component", "directory", "error", err)
			}
			return
		}

		m := parseMessage(line)
		switch m.name {
		case "begin":
			currentID = m.num("id")
			collected = nil
			cmdErr = nil
		case "end":
			t.deliver(m.num("id"), reply{lines: collected, err: cmdErr})
			currentID = 0
		case "error":
			serr := &serverError{Number: m.num("number"), Message: m.str("message")}
			if currentID != 0 {
				cmdErr = serr
			} else if id := m.num("id"); id != 0 {
				t.deliver(id, reply{err: serr})
			}
		case "ok", "accepted", "pong":
			// success markers; outside a begin/end block they complete the
			// command named by their id directly
			if currentID == 0 {
				if id := m.num("id"); id != 0 {
					t.deliver(id, reply{})
				}
			}
		default:
			if currentID != 0 {
				collected = append(collected, m)
			} else {
				t.dispatchEvent(m)
			}
		}
	}
}

// dispatchEvent handles unsolicited server messages.
func (t *TeamTalk) dispatchEvent(m message) {
	switch m.name {
	case "removeaccount":
		if username := m.str("username"); username != "" {
			t.events.EmitAccountRemoved(username)
		}
	case "addaccount":
		if username := m.str("username"); username != "" {
			t.events.EmitAccountCreated(username)
		}
	case "loggedin", "loggedout", "adduser", "removeuser", "updateuser":
		slog.Debug("server event", "component", "directory", "event", m.name, "nickname", m.str("nickname"))
	}
}

func (t *TeamTalk) deliver(id int64, r reply) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if ok {
		ch <- r
	}
}

func (t *TeamTalk) failAllPending(err error) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[int64]chan reply)
	t.mu.Unlock()
	for _, ch := range pending {
		ch <- reply{err: fmt.Errorf("connection lost: %w", err)}
	}
}

func (t *TeamTalk) pingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_, err := t.roundTrip(pingCtx, command{name: "ping"})
			cancel()
			if err != nil && !errors.Is(err, ErrDisconnected) {
				slog.Warn("keepalive ping failed", "component", "directory", "error", err)
			}
		}
	}
}
