package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/spf13/viper"
)

// Columns must be spelled exactly as the Redash export displays them.
var defaultColumns = []string{
	"Dealer Salesforce ID", "Compulsory", "Total Leads",
	"Dealer Created Leads", "ADF Leads", "Organic Leads", "AutoTrader Leads",
	"Cars Solds", "Unique Users", "Page Views", "Sessions",
	"Appointments", "Trade-ins", "Credit Apps", "Deposits",
	"Showroom Unique Visitors",
}

var defaultAliases = []Alias{
	{Template: "Cars Sold", Dataset: "Cars Solds"},
	{Template: "Trade-Ins", Dataset: "Trade-ins"},
}

var defaultRegions = []RegionConfig{
	{Name: "CA", Source: "redash", Profile: "ca", QueryID: 377, BackupQueryID: 569},
	{Name: "US", Source: "redash", Profile: "us", QueryID: 150, BackupQueryID: 231},
}

type Config struct {
	Report    ReportConfig   `mapstructure:"report"`
	Regions   []RegionConfig `mapstructure:"regions"`
	Redash    RedashConfig   `mapstructure:"redash"`
	Templates StorageConfig  `mapstructure:"templates"`
	Output    OutputConfig   `mapstructure:"output"`
	History   HistoryConfig  `mapstructure:"history"`
	Notify    NotifyConfig   `mapstructure:"notify"`
	AWS       AWSConfig      `mapstructure:"aws"`
	Server    ServerConfig   `mapstructure:"server"`
}

type ReportConfig struct {
	Columns           []string `mapstructure:"columns"`
	DealerColumn      string   `mapstructure:"dealer_column"`
	TemplateKeyColumn string   `mapstructure:"template_key_column"`
	FlagColumn        string   `mapstructure:"flag_column"`
	PeriodColumns     []string `mapstructure:"period_columns"`
	Aliases           []Alias  `mapstructure:"aliases"`
}

// Alias is kept as a list entry because viper lower-cases map keys.
type Alias struct {
	Template string `mapstructure:"template"`
	Dataset  string `mapstructure:"dataset"`
}

type RegionConfig struct {
	Name          string `mapstructure:"name"`
	Source        string `mapstructure:"source"`  // redash, file
	Profile       string `mapstructure:"profile"` // section of the profiles file
	QueryID       int    `mapstructure:"query_id"`
	BackupQueryID int    `mapstructure:"backup_query_id"`
	Path          string `mapstructure:"path"` // file source, may contain {cadence}
}

// ProfileName is the section of the profiles file holding the region's
// credentials; it defaults to the region name.
func (r RegionConfig) ProfileName() string {
	if r.Profile != "" {
		return r.Profile
	}
	return r.Name
}

type RedashConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // local, s3
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

type OutputConfig struct {
	StorageConfig `mapstructure:",squash"`
	Format        string `mapstructure:"format"` // csv, xlsx
	SaveExports   bool   `mapstructure:"save_exports"`
}

type HistoryConfig struct {
	Driver string `mapstructure:"driver"` // sqlite3, pgx; empty disables history
	DSN    string `mapstructure:"dsn"`
}

type NotifyConfig struct {
	Channel string `mapstructure:"channel"`
	Message string `mapstructure:"message"`
}

type AWSConfig struct {
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// Load reads the YAML configuration at path. An empty path yields the defaults;
// REPORTS_* environment variables override scalar settings.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("REPORTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse reports config: %w", err)
	}
	applyListDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("report.dealer_column", "Dealer Salesforce ID")
	v.SetDefault("report.template_key_column", "Account ID - 18")
	v.SetDefault("report.flag_column", "Compulsory")
	v.SetDefault("redash.poll_interval", time.Second)
	v.SetDefault("redash.timeout", 10*time.Minute)
	v.SetDefault("templates.backend", "local")
	v.SetDefault("templates.dir", "Templates")
	v.SetDefault("output.backend", "local")
	v.SetDefault("output.dir", "Reports")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.save_exports", true)
	v.SetDefault("history.driver", "sqlite3")
	v.SetDefault("history.dsn", "reports.db")
	v.SetDefault("notify.channel", "redashdealerreports")
	v.SetDefault("notify.message", "Your Redash reports are ready!")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
}

// Lists are defaulted after decoding so that a configured list replaces the
// default instead of being merged into it.
func applyListDefaults(cfg *Config) {
	if len(cfg.Report.Columns) == 0 {
		cfg.Report.Columns = append([]string(nil), defaultColumns...)
	}
	if len(cfg.Report.PeriodColumns) == 0 {
		cfg.Report.PeriodColumns = []string{"Year/Month::multi-filter", "YearMonth"}
	}
	if len(cfg.Report.Aliases) == 0 {
		cfg.Report.Aliases = append([]Alias(nil), defaultAliases...)
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = append([]RegionConfig(nil), defaultRegions...)
	}
}

func (c *Config) Validate() error {
	if c.Report.DealerColumn == "" || c.Report.TemplateKeyColumn == "" {
		return fmt.Errorf("invalid config: dealer and template key columns are required")
	}
	seen := make(map[string]bool, len(c.Regions))
	for _, r := range c.Regions {
		if r.Name == "" {
			return fmt.Errorf("invalid config: region without a name")
		}
		if seen[r.Name] {
			return fmt.Errorf("invalid config: duplicate region %q", r.Name)
		}
		seen[r.Name] = true
	}
	for _, a := range c.Report.Aliases {
		if a.Template == "" || a.Dataset == "" {
			return fmt.Errorf("invalid config: alias entries need both template and dataset names")
		}
	}
	return nil
}

// Schema exposes the report conventions in the shape the report engine uses.
func (c *Config) Schema() domain.ReportSchema {
	aliases := make(map[string]string, len(c.Report.Aliases))
	for _, a := range c.Report.Aliases {
		aliases[a.Template] = a.Dataset
	}
	return domain.ReportSchema{
		Columns:           append([]string(nil), c.Report.Columns...),
		DealerColumn:      c.Report.DealerColumn,
		TemplateKeyColumn: c.Report.TemplateKeyColumn,
		FlagColumn:        c.Report.FlagColumn,
		PeriodColumns:     append([]string(nil), c.Report.PeriodColumns...),
		Aliases:           aliases,
	}
}
