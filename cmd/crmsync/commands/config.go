package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"crmsync/internal/components/telemetry"
	"crmsync/internal/db"
	"crmsync/internal/notify"
	"crmsync/internal/scrapers/crm"
	"crmsync/pkg/configutil"
	"crmsync/pkg/migrations"
)

type CredentialsConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SiteConfig struct {
	LoginUrl    string `json:"login_url"`
	RedirectUrl string `json:"redirect_url"`
	// PageUrl must contain a `{page}` placeholder.
	PageUrl          string `json:"page_url"`
	ProbeUrl         string `json:"probe_url"`
	UserAgent        string `json:"user_agent"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

type FetchConfig struct {
	BatchSize         int     `json:"batch_size"`
	TimeoutMinutes    int     `json:"timeout_minutes"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type DatabaseConfig struct {
	// Path of a local sqlite database, ignored when Url is set.
	Path      string `json:"path"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

type ReportConfig struct {
	Path string `json:"path"`
	// OnSync writes the report after every sync, not only when --report is passed.
	OnSync bool `json:"on_sync"`
}

type Config struct {
	Credentials CredentialsConfig `json:"credentials"`
	Site        SiteConfig        `json:"site"`
	Fetch       FetchConfig       `json:"fetch"`
	Database    DatabaseConfig    `json:"database"`
	Report      ReportConfig      `json:"report"`
	Smtp        notify.SmtpConfig `json:"smtp"`
	Telemetry   telemetry.Config  `json:"telemetry"`
}

func validateUrl(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme '%s'", name, parsed.Scheme)
	}
	return nil
}

// Validate checks the config and fills in defaults for optional values.
func (c *Config) Validate() error {
	var errs []error
	if c.Credentials.Email == "" {
		errs = append(errs, fmt.Errorf("credentials.email is required"))
	}
	if c.Credentials.Password == "" {
		errs = append(errs, fmt.Errorf("credentials.password is required"))
	}

	errs = append(errs, validateUrl("site.login_url", c.Site.LoginUrl))
	errs = append(errs, validateUrl("site.redirect_url", c.Site.RedirectUrl))
	errs = append(errs, validateUrl("site.page_url", c.Site.PageUrl))
	if c.Site.PageUrl != "" && !strings.Contains(c.Site.PageUrl, "{page}") {
		errs = append(errs, fmt.Errorf("site.page_url must contain a {page} placeholder"))
	}
	if c.Site.ProbeUrl != "" {
		errs = append(errs, validateUrl("site.probe_url", c.Site.ProbeUrl))
	}

	if c.Fetch.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("fetch.batch_size cannot be negative"))
	}
	if c.Fetch.TimeoutMinutes < 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout_minutes cannot be negative"))
	}
	if c.Fetch.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("fetch.requests_per_second cannot be negative"))
	}
	if c.Smtp.Enabled() && c.Smtp.EmailAddress == "" {
		errs = append(errs, fmt.Errorf("smtp.email_address is required to send notifications"))
	}

	err := errors.Join(errs...)
	if err != nil {
		return err
	}

	if c.Fetch.BatchSize == 0 {
		c.Fetch.BatchSize = crm.DefaultBatchSize
	}
	if c.Fetch.TimeoutMinutes == 0 {
		c.Fetch.TimeoutMinutes = int(crm.DefaultTimeout / time.Minute)
	}
	if c.Database.Path == "" {
		c.Database.Path = "crmsync.db"
	}
	if c.Report.Path == "" {
		c.Report.Path = "students.xlsx"
	}
	if c.Smtp.Port == 0 {
		c.Smtp.Port = 587
	}
	return nil
}

func loadConfig() (Config, error) {
	return configutil.ReadConfig[Config](*configPath)
}

func (c Config) clientOptions(dump telemetry.MessageOutput) crm.Options {
	return crm.Options{
		LoginUrl:    c.Site.LoginUrl,
		RedirectUrl: c.Site.RedirectUrl,
		PageUrl:     c.Site.PageUrl,
		ProbeUrl:    c.Site.ProbeUrl,
		Credentials: crm.Credentials{
			Username: c.Credentials.Email,
			Password: c.Credentials.Password,
		},
		UserAgent:         c.Site.UserAgent,
		Timeout:           time.Duration(c.Fetch.TimeoutMinutes) * time.Minute,
		RequestsPerSecond: c.Fetch.RequestsPerSecond,
		CloudflareBypass:  c.Site.CloudflareBypass,
		DumpOutput:        dump,
	}
}

// openDatabase opens the configured database and applies the schema.
func (c Config) openDatabase() (*sql.DB, error) {
	var database *sql.DB
	var err error
	if c.Database.Url != "" {
		database, err = migrations.OpenRemoteDB(c.Database.Url, c.Database.AuthToken)
	} else {
		database, err = migrations.OpenDB(c.Database.Path)
	}
	if err != nil {
		return nil, err
	}
	err = migrations.Migrate(database, db.Schema)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
