package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Registration RegistrationConfig `yaml:"registration"`
	Web          WebConfig          `yaml:"web"`
	Storage      StorageConfig      `yaml:"storage"`
	Cleanup      CleanupConfig      `yaml:"cleanup"`
}

// ServerConfig describes the TeamTalk server the gateway registers accounts
// on, plus the bot account it uses to talk to it.
type ServerConfig struct {
	Host           string `yaml:"host"`
	TCPPort        int    `yaml:"tcp_port"`
	UDPPort        int    `yaml:"udp_port"`
	Encrypted      bool   `yaml:"encrypted"`
	Name           string `yaml:"name"`
	PublicHostname string `yaml:"public_hostname"`

	BotUsername string `yaml:"bot_username"`
	BotPassword string `yaml:"bot_password"`
	BotNickname string `yaml:"bot_nickname"`
	ClientName  string `yaml:"client_name"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RegistrationConfig struct {
	RequireApproval   bool    `yaml:"require_approval"`
	ForcedLanguage    string  `yaml:"forced_language"`
	AdminLanguage     string  `yaml:"admin_language"`
	BroadcastEnabled  *bool   `yaml:"broadcast_enabled"`
	DefaultUserRights string  `yaml:"default_user_rights"`
	AdminIDs          []int64 `yaml:"admin_ids"`
}

type WebConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	TrustedProxies []string      `yaml:"trusted_proxies"`
	RegisterPerIP  int           `yaml:"register_requests_per_ip"`
	RegisterWindow time.Duration `yaml:"register_window"`
}

type StorageConfig struct {
	GeneratedDir      string `yaml:"generated_dir"`
	ClientTemplateDir string `yaml:"client_template_dir"`
}

type CleanupConfig struct {
	Interval        time.Duration `yaml:"interval"`
	PendingTTL      time.Duration `yaml:"pending_ttl"`
	RegisteredIPTTL time.Duration `yaml:"registered_ip_ttl"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
}

// DefaultUserRights mirrors the rights a freshly registered TeamTalk account
// gets when the config does not override them.
const DefaultUserRights = "MULTI_LOGIN,VIEW_ALL_USERS,CREATE_TEMPORARY_CHANNEL," +
	"UPLOAD_FILES,DOWNLOAD_FILES,TRANSMIT_VOICE,TRANSMIT_VIDEOCAPTURE," +
	"TRANSMIT_DESKTOP,TRANSMIT_DESKTOPINPUT,TRANSMIT_MEDIAFILE," +
	"TEXTMESSAGE_USER,TEXTMESSAGE_CHANNEL"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TTREG_BOT_PASSWORD"); v != "" {
		c.Server.BotPassword = v
	}
	if v := os.Getenv("TTREG_ADMIN_IDS"); v != "" {
		c.Registration.AdminIDs = nil
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				c.Registration.AdminIDs = append(c.Registration.AdminIDs, id)
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.TCPPort == 0 {
		return fmt.Errorf("server.tcp_port is required")
	}
	if c.Server.BotUsername == "" {
		return fmt.Errorf("server.bot_username is required")
	}
	if c.Web.Enabled && c.Web.Port == 0 {
		return fmt.Errorf("web.port is required when web registration is enabled")
	}
	if c.Storage.ClientTemplateDir != "" {
		info, err := os.Stat(c.Storage.ClientTemplateDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("storage.client_template_dir %q is not a directory", c.Storage.ClientTemplateDir)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.UDPPort == 0 {
		c.Server.UDPPort = c.Server.TCPPort
	}
	if c.Server.Name == "" {
		c.Server.Name = "TeamTalk Server"
	}
	if c.Server.BotNickname == "" {
		c.Server.BotNickname = "RegisterBot"
	}
	if c.Server.ClientName == "" {
		c.Server.ClientName = "TeamTalkRegisterBot"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/registrations.db"
	}
	if c.Registration.AdminLanguage == "" {
		c.Registration.AdminLanguage = "en"
	}
	if c.Registration.BroadcastEnabled == nil {
		enabled := true
		c.Registration.BroadcastEnabled = &enabled
	}
	if c.Registration.DefaultUserRights == "" {
		c.Registration.DefaultUserRights = DefaultUserRights
	}
	if c.Web.Host == "" {
		c.Web.Host = "0.0.0.0"
	}
	if c.Web.BaseURL == "" && c.Web.Enabled {
		c.Web.BaseURL = fmt.Sprintf("http://%s:%d", c.Web.Host, c.Web.Port)
	}
	if c.Web.RegisterPerIP == 0 {
		c.Web.RegisterPerIP = 5
	}
	if c.Web.RegisterWindow == 0 {
		c.Web.RegisterWindow = time.Minute
	}
	if c.Storage.GeneratedDir == "" {
		c.Storage.GeneratedDir = "./data/generated"
	}
	if c.Cleanup.Interval == 0 {
		c.Cleanup.Interval = 5 * time.Minute
	}
	if c.Cleanup.PendingTTL == 0 {
		c.Cleanup.PendingTTL = time.Hour
	}
	if c.Cleanup.RegisteredIPTTL == 0 {
		c.Cleanup.RegisteredIPTTL = 24 * time.Hour
	}
	if c.Cleanup.TokenTTL == 0 {
		c.Cleanup.TokenTTL = 10 * time.Minute
	}
}

// EffectiveHostname is the address embedded in generated artifacts. A public
// hostname override takes precedence over the connect address.
func (c *Config) EffectiveHostname() string {
	if c.Server.PublicHostname != "" {
		return c.Server.PublicHostname
	}
	return c.Server.Host
}

func (c *Config) BroadcastOnRegistration() bool {
	return c.Registration.BroadcastEnabled == nil || *c.Registration.BroadcastEnabled
}

func (c *Config) IsAdmin(id int64) bool {
	for _, adminID := range c.Registration.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// DefaultRightsList splits the configured rights string into the individual
// right names the directory adapter understands.
func (c *Config) DefaultRightsList() []string {
	var rights []string
	for _, part := range strings.Split(c.Registration.DefaultUserRights, ",") {
		if part = strings.TrimSpace(part); part != "" {
			rights = append(rights, part)
		}
	}
	return rights
}
