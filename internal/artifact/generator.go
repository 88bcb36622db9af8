package artifact

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

// Bundle is what a completed registration hands back to the user: a connect
// link plus single-use download tokens for the generated files. ClientToken
// and ClientURL are empty when no client template is configured.
type Bundle struct {
	Link string

	ConfigToken    string
	ConfigURL      string
	ConfigPath     string
	ConfigFilename string

	ClientToken    string
	ClientURL      string
	ClientPath     string
	ClientFilename string
}

// Generator writes connection artifacts under the generated directory and
// issues the download tokens that guard them.
type Generator struct {
	cfg    *config.Config
	tokens *db.DownloadTokenRepository
}

func NewGenerator(cfg *config.Config, tokens *db.DownloadTokenRepository) *Generator {
	return &Generator{cfg: cfg, tokens: tokens}
}

// Issue generates the artifacts for a freshly created account. The locale is
// baked into the client bundle so a preconfigured client starts in the
// registrant's language.
func (g *Generator) Issue(username, password, nickname, locale string) (*Bundle, error) {
	params := ConnectionParams{
		Host:       g.cfg.EffectiveHostname(),
		TCPPort:    g.cfg.Server.TCPPort,
		UDPPort:    g.cfg.Server.UDPPort,
		Encrypted:  g.cfg.Server.Encrypted,
		ServerName: g.cfg.Server.Name,
		Username:   username,
		Password:   password,
		Nickname:   nickname,
		Channel:    "/",
	}

	if err := os.MkdirAll(g.cfg.Storage.GeneratedDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating generated directory: %w", err)
	}

	bundle := &Bundle{
		Link:           EncodeLink(params),
		ConfigFilename: sanitizeFilename(username) + ".tt",
		ClientFilename: sanitizeFilename(username) + "_client.zip",
	}

	configToken, configPath, err := g.writeArtifact(
		models.ArtifactConfigFile,
		bundle.ConfigFilename,
		func(path string) error {
			data, err := EncodeConfigFile(params)
			if err != nil {
				return err
			}
			return os.WriteFile(path, data, 0o600)
		},
	)
	if err != nil {
		return nil, err
	}
	bundle.ConfigToken = configToken
	bundle.ConfigPath = configPath
	bundle.ConfigURL = g.downloadURL("config", configToken)

	if g.cfg.Storage.ClientTemplateDir != "" {
		clientToken, clientPath, err := g.writeArtifact(
			models.ArtifactClientBundle,
			bundle.ClientFilename,
			func(path string) error {
				return g.buildClientBundle(path, params, locale)
			},
		)
		if err != nil {
			// The config file already exists and its token is valid; a
			// missing client bundle should not sink the registration.
			slog.Error("error building client bundle", "component", "artifact", "error", err)
			bundle.ClientFilename = ""
		} else {
			bundle.ClientToken = clientToken
			bundle.ClientPath = clientPath
			bundle.ClientURL = g.downloadURL("client", clientToken)
		}
	}

	return bundle, nil
}

// Redeem exchanges a single-use token for the artifact's content. The caller
// must close the returned reader. A token that is unknown, expired, already
// used, or of the wrong kind yields db.ErrNotFound.
func (g *Generator) Redeem(tokenValue string, kind models.ArtifactKind) (io.ReadCloser, string, error) {
	token, err := g.tokens.Redeem(tokenValue, kind)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(token.ServerPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening artifact file: %w", err)
	}
	return f, token.UserFilename, nil
}

// Sweep removes artifact files whose tokens expired or were used, then drops
// the token rows. Returns the number of rows deleted.
func (g *Generator) Sweep() (int64, error) {
	stale, err := g.tokens.FindExpiredOrUsed()
	if err != nil {
		return 0, err
	}
	for _, token := range stale {
		if err := os.Remove(token.ServerPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Error("error removing artifact file", "component", "artifact", "path", token.ServerPath, "error", err)
		}
	}
	return g.tokens.DeleteExpiredOrUsed()
}

func (g *Generator) writeArtifact(kind models.ArtifactKind, userFilename string, write func(path string) error) (string, string, error) {
	tokenValue, err := db.GenerateToken()
	if err != nil {
		return "", "", fmt.Errorf("generating download token: %w", err)
	}

	ext := filepath.Ext(userFilename)
	path := filepath.Join(g.cfg.Storage.GeneratedDir, tokenValue+ext)
	if err := write(path); err != nil {
		return "", "", fmt.Errorf("writing %s artifact: %w", kind, err)
	}

	now := time.Now().UTC()
	err = g.tokens.Create(&models.DownloadToken{
		Token:        tokenValue,
		ServerPath:   path,
		UserFilename: userFilename,
		Kind:         kind,
		CreatedAt:    now,
		ExpiresAt:    now.Add(g.cfg.Cleanup.TokenTTL),
	})
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("storing download token: %w", err)
	}
	return tokenValue, path, nil
}

func (g *Generator) downloadURL(segment, token string) string {
	if !g.cfg.Web.Enabled || g.cfg.Web.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/download/%s/%s", strings.TrimRight(g.cfg.Web.BaseURL, "/"), segment, token)
}

const clientINIPath = "Client/TeamTalk5.ini"

// buildClientBundle copies the template zip entry by entry, rewriting the
// client settings file so the bundled client auto-connects with the new
// account.
func (g *Generator) buildClientBundle(outPath string, params ConnectionParams, locale string) error {
	templatePath, err := findTemplateZip(g.cfg.Storage.ClientTemplateDir)
	if err != nil {
		return err
	}

	src, err := zip.OpenReader(templatePath)
	if err != nil {
		return fmt.Errorf("opening client template %s: %w", templatePath, err)
	}
	defer src.Close()

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating client bundle: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	rewritten := false
	for _, entry := range src.File {
		data, err := readZipEntry(entry)
		if err != nil {
			return fmt.Errorf("reading template entry %s: %w", entry.Name, err)
		}

		if strings.EqualFold(filepath.ToSlash(entry.Name), clientINIPath) {
			if data, err = rewriteClientSettings(data, params, locale); err != nil {
				return fmt.Errorf("rewriting %s: %w", entry.Name, err)
			}
			rewritten = true
		}

		header := entry.FileHeader
		fw, err := w.CreateHeader(&header)
		if err != nil {
			return fmt.Errorf("writing bundle entry %s: %w", entry.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing bundle entry %s: %w", entry.Name, err)
		}
	}
	if !rewritten {
		return fmt.Errorf("client template has no %s entry", clientINIPath)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing client bundle: %w", err)
	}
	return nil
}

func findTemplateZip(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading client template directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no zip archive in client template directory %s", dir)
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// rewriteClientSettings points server entry 0 of the client settings at our
// server, enables autoconnect, and sets the display language.
func rewriteClientSettings(data []byte, params ConnectionParams, locale string) ([]byte, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:      true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, err
	}

	entries := f.Section("serverentries")
	entries.Key(`0\name`).SetValue(params.ServerName)
	entries.Key(`0\hostaddr`).SetValue(params.Host)
	entries.Key(`0\tcpport`).SetValue(fmt.Sprintf("%d", params.TCPPort))
	entries.Key(`0\udpport`).SetValue(fmt.Sprintf("%d", params.UDPPort))
	entries.Key(`0\encrypted`).SetValue(fmt.Sprintf("%t", params.Encrypted))
	entries.Key(`0\username`).SetValue(params.Username)
	entries.Key(`0\password`).SetValue(params.Password)
	entries.Key(`0\nickname`).SetValue(params.Nickname)
	entries.Key(`0\channel`).SetValue(params.Channel)

	f.Section("connection").Key("autoconnect").SetValue("true")
	if locale != "" {
		f.Section("display").Key("language").SetValue(locale)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "account"
	}
	return b.String()
}
