package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/owner-statements/internal/pipeline"
)

// Config represents the top-level ledger.yaml configuration. It is built once
// at startup and passed to every component that needs it.
type Config struct {
	Google   GoogleConfig   `yaml:"google"`
	Model    ModelConfig    `yaml:"model"`
	Source   SourceConfig   `yaml:"source"`
	Sink     SinkConfig     `yaml:"sink"`
	Tables   TablesConfig   `yaml:"tables"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Tax      TaxConfig      `yaml:"tax"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// GoogleConfig holds Google Cloud project and credentials.
type GoogleConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
	// CredentialsFile is a service account JSON key. Empty means
	// Application Default Credentials.
	CredentialsFile string `yaml:"credentials_file"`
	// APIKey selects the Gemini API backend instead of Vertex AI.
	APIKey string `yaml:"api_key,omitempty"`
}

// ModelConfig selects the extraction model.
type ModelConfig struct {
	Name string `yaml:"name"`
}

// Source kinds.
const (
	SourceGCS   = "gcs"
	SourceS3    = "s3"
	SourceLocal = "local"
)

// SourceConfig locates the PDFs to ingest.
type SourceConfig struct {
	Kind      string `yaml:"kind"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	TaxPrefix string `yaml:"tax_prefix"`
	Region    string `yaml:"region,omitempty"` // s3 only
	Dir       string `yaml:"dir,omitempty"`    // local only
}

// Sink kinds.
const (
	SinkSheets   = "sheets"
	SinkBigQuery = "bigquery"
	SinkPostgres = "postgres"
	SinkXLSX     = "xlsx"
	SinkMemory   = "memory"
)

// SinkConfig selects where rows are written.
type SinkConfig struct {
	Kind            string `yaml:"kind"`
	SpreadsheetID   string `yaml:"spreadsheet_id,omitempty"`
	SpreadsheetName string `yaml:"spreadsheet_name,omitempty"`
	Dataset         string `yaml:"dataset,omitempty"`
	PostgresDSN     string `yaml:"postgres_dsn,omitempty"`
	PostgresSchema  string `yaml:"postgres_schema,omitempty"`
	XLSXPath        string `yaml:"xlsx_path,omitempty"`
	// RecordRuns writes the run ledger. BigQuery sink only.
	RecordRuns bool `yaml:"record_runs"`
}

// TablesConfig names the destination tables. An empty Wide name resolves
// per sink, see WideTable.
type TablesConfig struct {
	Wide string `yaml:"wide"`
	Long string `yaml:"long"`
	Tax  string `yaml:"tax"`
}

// PipelineConfig tunes pacing and write order.
type PipelineConfig struct {
	StatementCooldown time.Duration `yaml:"statement_cooldown"`
	TaxCooldown       time.Duration `yaml:"tax_cooldown"`
	DeferLongRows     bool          `yaml:"defer_long_rows"`
}

// TaxConfig overrides the default municipal tax rates. Rates are percentages
// written as decimal strings, e.g. "1.478321".
type TaxConfig struct {
	Rates            map[int]string `yaml:"rates,omitempty"`
	NoFinalBillYears []int          `yaml:"no_final_bill_years,omitempty"`
}

// ScheduleConfig drives the schedule command.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns a Config with the defaults used when no file is present.
func Default() *Config {
	return &Config{
		Google: GoogleConfig{
			Location: "us-central1",
		},
		Model: ModelConfig{
			Name: pipeline.DefaultModelName,
		},
		Source: SourceConfig{
			Kind: SourceGCS,
		},
		Sink: SinkConfig{
			Kind: SinkSheets,
		},
		Tables: TablesConfig{
			Long: pipeline.DefaultLongTable,
			Tax:  pipeline.DefaultTaxTable,
		},
		Pipeline: PipelineConfig{
			StatementCooldown: pipeline.DefaultStatementCooldown,
			TaxCooldown:       pipeline.DefaultTaxCooldown,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 6 * * *",
			Timezone: "America/Toronto",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds a Config from defaults, a .env file in the working directory,
// the YAML file at path (skipped when path is empty) and finally environment
// variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LEDGER_PROJECT":                 &c.Google.Project,
		"LEDGER_LOCATION":                &c.Google.Location,
		"GOOGLE_APPLICATION_CREDENTIALS": &c.Google.CredentialsFile,
		"GEMINI_API_KEY":                 &c.Google.APIKey,
		"LEDGER_MODEL":                   &c.Model.Name,
		"LEDGER_SOURCE":                  &c.Source.Kind,
		"LEDGER_BUCKET":                  &c.Source.Bucket,
		"LEDGER_PREFIX":                  &c.Source.Prefix,
		"LEDGER_TAX_PREFIX":              &c.Source.TaxPrefix,
		"LEDGER_SOURCE_DIR":              &c.Source.Dir,
		"AWS_REGION":                     &c.Source.Region,
		"LEDGER_SINK":                    &c.Sink.Kind,
		"LEDGER_SPREADSHEET_ID":          &c.Sink.SpreadsheetID,
		"LEDGER_SPREADSHEET_NAME":        &c.Sink.SpreadsheetName,
		"LEDGER_DATASET":                 &c.Sink.Dataset,
		"LEDGER_POSTGRES_DSN":            &c.Sink.PostgresDSN,
		"LEDGER_POSTGRES_SCHEMA":         &c.Sink.PostgresSchema,
		"LEDGER_XLSX_PATH":               &c.Sink.XLSXPath,
		"LEDGER_LOG_LEVEL":               &c.Log.Level,
		"LEDGER_LOG_FORMAT":              &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"LEDGER_STATEMENT_COOLDOWN": &c.Pipeline.StatementCooldown,
		"LEDGER_TAX_COOLDOWN":       &c.Pipeline.TaxCooldown,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("LEDGER_DEFER_LONG_ROWS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing LEDGER_DEFER_LONG_ROWS: %w", err)
		}
		c.Pipeline.DeferLongRows = b
	}
	return nil
}

// WideTable returns the wide table name. Spreadsheet-like sinks default to
// "Sheet1"; SQL sinks default to "owner_statements".
func (c *Config) WideTable() string {
	if c.Tables.Wide != "" {
		return c.Tables.Wide
	}
	switch c.Sink.Kind {
	case SinkBigQuery, SinkPostgres:
		return "owner_statements"
	default:
		return pipeline.DefaultWideTable
	}
}

// Validate checks that the selected source and sink are fully configured.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceGCS, SourceS3:
		if c.Source.Bucket == "" {
			errs = append(errs, fmt.Errorf("source.bucket is required for %s", c.Source.Kind))
		}
	case SourceLocal:
		if c.Source.Dir == "" {
			errs = append(errs, errors.New("source.dir is required for local"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source.Kind))
	}

	switch c.Sink.Kind {
	case SinkSheets:
		if c.Sink.SpreadsheetID == "" && c.Sink.SpreadsheetName == "" {
			errs = append(errs, errors.New("sink.spreadsheet_id or sink.spreadsheet_name is required for sheets"))
		}
	case SinkBigQuery:
		if c.Google.Project == "" || c.Sink.Dataset == "" {
			errs = append(errs, errors.New("google.project and sink.dataset are required for bigquery"))
		}
	case SinkPostgres:
		if c.Sink.PostgresDSN == "" {
			errs = append(errs, errors.New("sink.postgres_dsn is required for postgres"))
		}
	case SinkXLSX:
		if c.Sink.XLSXPath == "" {
			errs = append(errs, errors.New("sink.xlsx_path is required for xlsx"))
		}
	case SinkMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown sink.kind %q", c.Sink.Kind))
	}

	if c.Sink.RecordRuns && c.Sink.Kind != SinkBigQuery {
		errs = append(errs, errors.New("sink.record_runs requires the bigquery sink"))
	}
	if c.Pipeline.StatementCooldown < 0 || c.Pipeline.TaxCooldown < 0 {
		errs = append(errs, errors.New("pipeline cooldowns must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateExtraction checks that the extraction model can be reached.
func (c *Config) ValidateExtraction() error {
	if c.Model.Name == "" {
		return errors.New("model.name is required")
	}
	if c.Google.APIKey == "" && c.Google.Project == "" {
		return errors.New("google.project (Vertex AI) or google.api_key (Gemini API) is required")
	}
	return nil
}
