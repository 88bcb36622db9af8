// Package registration implements the conversational registration state
// machine, the commit sequence that turns a finished request into a server
// account, and the admin approval workflow in between.
package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
)

type Step int

const (
	StepChoosingLanguage Step = iota
	StepAwaitingUsername
	StepAwaitingPassword
	StepAwaitingAccountType
	StepAwaitingNicknameChoice
	StepAwaitingNickname
)

// ErrWrongStep is returned when input arrives for a step the session is not
// on. The gateway ignores such input.
var ErrWrongStep = errors.New("input does not match current registration step")

// ErrNoSession is returned when a registrant has no registration in progress.
var ErrNoSession = errors.New("no registration in progress")

// Session is one registrant's in-progress registration. Sessions live in
// memory only; an unfinished registration does not survive a restart.
type Session struct {
	RegistrantID   int64
	RegistrantName string
	Locale         string
	Username       string
	Password       string
	Nickname       string
	AccountType    directory.AccountType
	// ForOther marks an admin registering an account for somebody else.
	ForOther  bool
	Step      Step
	StartedAt time.Time
}

// Outcome tells the caller what to show the registrant next.
type Outcome int

const (
	OutcomeBanned Outcome = iota
	OutcomeAlreadyRegistered
	OutcomeChooseLanguage
	OutcomeAskUsername
	OutcomeUsernameTaken
	OutcomeUsernameCheckFailed
	OutcomeAskPassword
	OutcomeAskAccountType
	OutcomeAskNicknameChoice
	OutcomeAskNickname
	OutcomeSubmitForApproval
	OutcomeReadyToCommit
	OutcomeCancelled
	OutcomeNothingToCancel
)

// Result is the state machine's answer to one piece of input. Session is a
// copy taken after the transition.
type Result struct {
	Outcome Outcome
	Session Session
}

// Flow drives registration sessions. All transitions are serialized under one
// mutex; the per-step work is cheap and sessions are few.
type Flow struct {
	cfg           *config.Config
	registrations *db.RegistrationRepository
	bans          *db.BanRepository
	dir           directory.Directory

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewFlow(cfg *config.Config, registrations *db.RegistrationRepository, bans *db.BanRepository, dir directory.Directory) *Flow {
	return &Flow{
		cfg:           cfg,
		registrations: registrations,
		bans:          bans,
		dir:           dir,
		sessions:      make(map[int64]*Session),
	}
}

// Start begins a registration for a registrant. forOther marks an admin
// registering an account on someone else's behalf; such sessions skip the
// already-registered gate because the account is not for the admin.
func (f *Flow) Start(ctx context.Context, registrantID int64, registrantName string, forOther bool) (*Result, error) {
	banned, err := f.bans.IsBanned(registrantID)
	if err != nil {
		return nil, err
	}
	if banned {
		return &Result{Outcome: OutcomeBanned}, nil
	}

	if !forOther {
		registered, err := f.registrations.Exists(registrantID)
		if err != nil {
			return nil, err
		}
		if registered {
			return &Result{Outcome: OutcomeAlreadyRegistered}, nil
		}
	}

	session := &Session{
		RegistrantID:   registrantID,
		RegistrantName: registrantName,
		AccountType:    directory.AccountUser,
		ForOther:       forOther,
		Step:           StepChoosingLanguage,
		StartedAt:      time.Now().UTC(),
	}

	f.mu.Lock()
	f.sessions[registrantID] = session
	f.mu.Unlock()

	// A forced language that actually has a catalog skips the language step.
	if forced := f.cfg.Registration.ForcedLanguage; forced != "" && i18n.Supported(forced) {
		return f.transition(registrantID, func(s *Session) (Outcome, error) {
			s.Locale = forced
			s.Step = StepAwaitingUsername
			return OutcomeAskUsername, nil
		})
	}
	return &Result{Outcome: OutcomeChooseLanguage, Session: *session}, nil
}

func (f *Flow) ChooseLanguage(ctx context.Context, registrantID int64, locale string) (*Result, error) {
	if !i18n.Supported(locale) {
		return f.transition(registrantID, func(s *Session) (Outcome, error) {
			if s.Step != StepChoosingLanguage {
				return 0, ErrWrongStep
			}
			return OutcomeChooseLanguage, nil
		})
	}

	// Re-check after the language roundtrip: the registrant may have been
	// registered through another channel in the meantime.
	if result, err := f.guardAlreadyRegistered(registrantID); result != nil || err != nil {
		return result, err
	}

	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != StepChoosingLanguage {
			return 0, ErrWrongStep
		}
		s.Locale = locale
		s.Step = StepAwaitingUsername
		return OutcomeAskUsername, nil
	})
}

// SubmitUsername checks availability against the live server. The three
// outcomes are distinct: taken re-prompts, a failed check re-prompts with an
// error, only a confirmed-free name advances.
func (f *Flow) SubmitUsername(ctx context.Context, registrantID int64, username string) (*Result, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return f.stay(registrantID, StepAwaitingUsername, OutcomeAskUsername)
	}

	taken, err := f.dir.Exists(ctx, username)
	if err != nil {
		return f.stay(registrantID, StepAwaitingUsername, OutcomeUsernameCheckFailed)
	}
	if taken {
		return f.stay(registrantID, StepAwaitingUsername, OutcomeUsernameTaken)
	}

	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != StepAwaitingUsername {
			return 0, ErrWrongStep
		}
		s.Username = username
		s.Step = StepAwaitingPassword
		return OutcomeAskPassword, nil
	})
}

// SubmitPassword stores the password exactly as typed. Leading and trailing
// whitespace is significant in TeamTalk passwords.
func (f *Flow) SubmitPassword(ctx context.Context, registrantID int64, password string) (*Result, error) {
	if password == "" {
		return f.stay(registrantID, StepAwaitingPassword, OutcomeAskPassword)
	}

	if result, err := f.guardAlreadyRegistered(registrantID); result != nil || err != nil {
		return result, err
	}

	adminFlow := f.cfg.IsAdmin(registrantID)
	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != StepAwaitingPassword {
			return 0, ErrWrongStep
		}
		s.Password = password
		if adminFlow {
			s.Step = StepAwaitingAccountType
			return OutcomeAskAccountType, nil
		}
		s.Step = StepAwaitingNicknameChoice
		return OutcomeAskNicknameChoice, nil
	})
}

func (f *Flow) ChooseAccountType(registrantID int64, accountType directory.AccountType) (*Result, error) {
	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != StepAwaitingAccountType {
			return 0, ErrWrongStep
		}
		s.AccountType = accountType
		s.Step = StepAwaitingNicknameChoice
		return OutcomeAskNicknameChoice, nil
	})
}

// ChooseNicknamePreference resolves whether the username doubles as the
// nickname. Declining asks for a separate nickname.
func (f *Flow) ChooseNicknamePreference(registrantID int64, useUsername bool) (*Result, error) {
	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != StepAwaitingNicknameChoice {
			return 0, ErrWrongStep
		}
		if useUsername {
			s.Nickname = s.Username
			return f.finish(s), nil
		}
		s.Step = StepAwaitingNickname
		return OutcomeAskNickname, nil
	})
}

func (f *Flow) SubmitNickname(registrantID int64, nickname string) (*Result, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return f.stay(registrantID, StepAwaitingNickname, OutcomeAskNickname)
	}

	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != StepAwaitingNickname {
			return 0, ErrWrongStep
		}
		s.Nickname = nickname
		return f.finish(s), nil
	})
}

func (f *Flow) Cancel(registrantID int64) *Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[registrantID]
	if !ok {
		return &Result{Outcome: OutcomeNothingToCancel}
	}
	delete(f.sessions, registrantID)
	return &Result{Outcome: OutcomeCancelled, Session: *session}
}

// SessionFor returns a copy of the registrant's session, if any.
func (f *Flow) SessionFor(registrantID int64) (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[registrantID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// finish decides where a completed session goes. Admin-initiated sessions
// bypass approval; everyone else waits for an admin when approval is on. The
// session leaves the map either way.
func (f *Flow) finish(s *Session) Outcome {
	delete(f.sessions, s.RegistrantID)
	if f.cfg.Registration.RequireApproval && !f.cfg.IsAdmin(s.RegistrantID) {
		return OutcomeSubmitForApproval
	}
	return OutcomeReadyToCommit
}

func (f *Flow) stay(registrantID int64, step Step, outcome Outcome) (*Result, error) {
	return f.transition(registrantID, func(s *Session) (Outcome, error) {
		if s.Step != step {
			return 0, ErrWrongStep
		}
		return outcome, nil
	})
}

// guardAlreadyRegistered aborts a non-proxy session whose registrant got a
// committed registration since the session started.
func (f *Flow) guardAlreadyRegistered(registrantID int64) (*Result, error) {
	f.mu.Lock()
	session, ok := f.sessions[registrantID]
	forOther := ok && session.ForOther
	f.mu.Unlock()

	if !ok {
		return nil, ErrNoSession
	}
	if forOther {
		return nil, nil
	}

	registered, err := f.registrations.Exists(registrantID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, nil
	}

	f.mu.Lock()
	delete(f.sessions, registrantID)
	f.mu.Unlock()
	return &Result{Outcome: OutcomeAlreadyRegistered, Session: *session}, nil
}

// transition runs fn against the registrant's session under the lock.
func (f *Flow) transition(registrantID int64, fn func(*Session) (Outcome, error)) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[registrantID]
	if !ok {
		return nil, ErrNoSession
	}

	outcome, err := fn(session)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: outcome, Session: *session}, nil
}
