package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/registration"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Nickname string `json:"nickname" validate:"max=64"`
	Language string `json:"language" validate:"max=16"`
}

type registerResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username,omitempty"`
	Link      string `json:"link,omitempty"`
	ConfigURL string `json:"config_url,omitempty"`
	ClientURL string `json:"client_url,omitempty"`
}

// RegistrationHandler serves the public registration page and endpoint.
type RegistrationHandler struct {
	cfg           *config.Config
	dir           directory.Directory
	committer     *registration.Committer
	registeredIPs *db.RegisteredIPRepository
	resolver      *ClientIPResolver
}

func NewRegistrationHandler(
	cfg *config.Config,
	dir directory.Directory,
	committer *registration.Committer,
	registeredIPs *db.RegisteredIPRepository,
	resolver *ClientIPResolver,
) *RegistrationHandler {
	return &RegistrationHandler{
		cfg:           cfg,
		dir:           dir,
		committer:     committer,
		registeredIPs: registeredIPs,
		resolver:      resolver,
	}
}

func (h *RegistrationHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	registerPage.Execute(w, map[string]string{"ServerName": h.cfg.Server.Name})
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	clientIP := h.resolver.Resolve(r)

	used, err := h.registeredIPs.Exists(clientIP)
	if err != nil {
		slog.Error("error checking registration IP", "component", "api", "error", err)
		internalError(w)
		return
	}
	if used {
		conflict(w, ErrCodeAlreadyRegistered, "An account was already registered from this address")
		return
	}

	req, err := h.decodeRequest(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	// The availability check has three outcomes; only a confirmed-free name
	// proceeds.
	taken, err := h.dir.Exists(r.Context(), req.Username)
	if err != nil {
		slog.Error("error checking username availability", "component", "api", "username", req.Username, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeUsernameCheck, "Could not verify username availability")
		return
	}
	if taken {
		conflict(w, ErrCodeUsernameTaken, "Username is already taken")
		return
	}

	locale := h.resolveLocale(req.Language)
	source := models.SourceContext{
		Channel:   "web",
		Locale:    locale,
		IPAddress: clientIP,
	}

	// The approval gate covers chat registrations only. Web registrants have
	// no channel to receive artifacts after the fact, so they commit directly
	// behind the per-address gate above.
	bundle, err := h.committer.Commit(r.Context(), registration.CommitRequest{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
		Locale:   locale,
		Source:   source,
	})
	if err != nil {
		slog.Error("error committing web registration", "component", "api", "username", req.Username, "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Status:    "registered",
		Username:  req.Username,
		Link:      bundle.Link,
		ConfigURL: bundle.ConfigURL,
		ClientURL: bundle.ClientURL,
	})
}

func (h *RegistrationHandler) decodeRequest(r *http.Request) (*registerRequest, error) {
	var req registerRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return nil, errors.New("invalid JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, errors.New("invalid form body")
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		req.Nickname = r.PostFormValue("nickname")
		req.Language = r.PostFormValue("language")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" {
		req.Nickname = req.Username
	}

	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *RegistrationHandler) resolveLocale(requested string) string {
	if forced := h.cfg.Registration.ForcedLanguage; forced != "" && i18n.Supported(forced) {
		return forced
	}
	if i18n.Supported(requested) {
		return requested
	}
	return i18n.DefaultLocale
}

var registerPage = template.Must(template.New("register").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.ServerName}} - Registration</title>
</head>
<body>
<h1>Register on {{.ServerName}}</h1>
<form method="post" action="/register">
<p><label>Username <input name="username" required maxlength="64"></label></p>
<p><label>Password <input name="password" type="password" required maxlength="128"></label></p>
<p><label>Nickname <input name="nickname" maxlength="64"></label></p>
<p><label>Language
<select name="language">
<option value="en">English</option>
<option value="ru">Русский</option>
</select>
</label></p>
<p><button type="submit">Register</button></p>
</form>
</body>
</html>
`))
