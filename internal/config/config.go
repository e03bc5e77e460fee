package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is the settings file read when no path is given.
const DefaultPath = "settings.yaml"

// Document store drivers.
const (
	DriverSurrealDB = "surrealdb"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverDatastore = "datastore"
)

// Config is the whole application configuration. It is built once by Load and
// handed to constructors; nothing reads it from a package variable.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Webmail     WebmailConfig     `mapstructure:"webmail"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	DocStore    DocStoreConfig    `mapstructure:"docstore"`
	GoogleSheet GoogleSheetConfig `mapstructure:"google_sheet"`
	Attendance  AttendanceConfig  `mapstructure:"attendance"`
	Stamp       StampConfig       `mapstructure:"stamp"`
	Elastic     ElasticConfig     `mapstructure:"elastic"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Keyring     KeyringConfig     `mapstructure:"keyring"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// WebmailConfig holds the login of the webmail UI.
type WebmailConfig struct {
	URL            string        `mapstructure:"url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	LoginTimeout   time.Duration `mapstructure:"login_timeout"`
	SkipSenders    []string      `mapstructure:"skip_senders"`
}

func (c *WebmailConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.SessionTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.LoginTimeout, validation.Required, validation.Min(time.Second)),
	)
}

// KeyringConfig tunes the encrypted-file keyring used when no system keyring
// is available. An empty FilePassword is asked for on the terminal.
type KeyringConfig struct {
	FileDir      string `mapstructure:"file_dir"`
	FilePassword string `mapstructure:"file_password"`
}

type BrowserConfig struct {
	Headless bool `mapstructure:"headless"`
}

// DocStoreConfig selects and configures the document store backend.
type DocStoreConfig struct {
	Driver    string `mapstructure:"driver"`
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	// DSN is used by the sqlite and postgres drivers.
	DSN string `mapstructure:"dsn"`
	// ProjectID is used by the datastore driver.
	ProjectID string `mapstructure:"project_id"`
}

func (c *DocStoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSurrealDB, DriverSQLite, DriverPostgres, DriverDatastore)),
		validation.Field(&c.URL, validation.When(c.Driver == DriverSurrealDB, validation.Required)),
		validation.Field(&c.Namespace, validation.When(c.Driver == DriverSurrealDB, validation.Required)),
		validation.Field(&c.Database, validation.When(c.Driver == DriverSurrealDB, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Driver == DriverSQLite || c.Driver == DriverPostgres, validation.Required)),
		validation.Field(&c.ProjectID, validation.When(c.Driver == DriverDatastore, validation.Required)),
	)
}

// GoogleSheetConfig points at the remote timecard spreadsheet.
type GoogleSheetConfig struct {
	CredentialsPath          string `mapstructure:"credentials_path"`
	SpreadsheetKey           string `mapstructure:"spreadsheet_key"`
	Range                    string `mapstructure:"range"`
	SSLCertificateValidation bool   `mapstructure:"ssl_certificate_validation"`
	// Endpoint overrides the API base URL.
	Endpoint string `mapstructure:"endpoint"`
}

func (c *GoogleSheetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CredentialsPath, validation.Required),
		validation.Field(&c.SpreadsheetKey, validation.Required),
		validation.Field(&c.Range, validation.Required),
	)
}

// AttendanceConfig tunes the timecard sheets.
type AttendanceConfig struct {
	LayoutFile string `mapstructure:"layout_file"`
	StampCell  string `mapstructure:"stamp_cell"`
}

type StampConfig struct {
	FontPath string `mapstructure:"font_path"`
	Size     int    `mapstructure:"size"`
}

func (c *StampConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Required, validation.Min(32), validation.Max(2048)),
	)
}

// ElasticConfig enables the mail search index when URL is set.
type ElasticConfig struct {
	URL      string `mapstructure:"url"`
	Index    string `mapstructure:"index"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (c *ElasticConfig) Enabled() bool { return c.URL != "" }

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Validate checks the sections every command relies on. Command specific
// sections are validated where they are wired.
func (c *Config) Validate() error {
	if err := c.Stamp.Validate(); err != nil {
		return fmt.Errorf("stamp: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("webmail.url", "")
	v.SetDefault("webmail.username", "")
	v.SetDefault("webmail.password", "")
	v.SetDefault("webmail.session_timeout", 30*time.Minute)
	v.SetDefault("webmail.login_timeout", 10*time.Second)
	v.SetDefault("webmail.skip_senders", []string{"Slack"})
	v.SetDefault("browser.headless", true)
	v.SetDefault("docstore.driver", DriverSurrealDB)
	v.SetDefault("docstore.url", "ws://localhost:8000/rpc")
	v.SetDefault("docstore.namespace", "mywork")
	v.SetDefault("docstore.database", "mail")
	v.SetDefault("docstore.username", "root")
	v.SetDefault("docstore.password", "")
	v.SetDefault("docstore.dsn", "")
	v.SetDefault("docstore.project_id", "")
	v.SetDefault("google_sheet.credentials_path", "credentials.json")
	v.SetDefault("google_sheet.spreadsheet_key", "")
	v.SetDefault("google_sheet.range", "Timecard!A2:F")
	v.SetDefault("google_sheet.ssl_certificate_validation", true)
	v.SetDefault("google_sheet.endpoint", "")
	v.SetDefault("attendance.layout_file", "")
	v.SetDefault("attendance.stamp_cell", "T4")
	v.SetDefault("stamp.font_path", "")
	v.SetDefault("stamp.size", 300)
	v.SetDefault("elastic.url", "")
	v.SetDefault("elastic.index", "mail_messages")
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("http.port", 8080)
	v.SetDefault("keyring.file_dir", "~/.config/mywork-tools/credentials")
	v.SetDefault("keyring.file_password", "")
}

// Load reads .env, the YAML settings file and environment overrides such as
// WEBMAIL__PASSWORD. A missing settings file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
