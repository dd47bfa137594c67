// Package config defines the configuration model of the star-schema loader
// and loads it with viper from a JSON/YAML file, NAMKIN_* environment
// variables and the DB_*/KAFKA_* variables used by the production
// deployment.
//
// Example (trimmed):
//
//	job: namkin
//	source:
//	  machines_dir: data/machines
//	  material_workbook: data/material-data.xlsx
//	  part_workbook: data/part-reference.xlsx
//	transform:
//	  price_policy: all
//	storage:
//	  kind: mssql
//	  host: db.internal
//	  database: namkin_ods
//	  schema: dbo
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Job labels metrics and log lines.
	Job       string    `mapstructure:"job" json:"job"`
	Source    Source    `mapstructure:"source" json:"source"`
	Transform Transform `mapstructure:"transform" json:"transform"`
	Storage   Storage   `mapstructure:"storage" json:"storage"`
	Metrics   Metrics   `mapstructure:"metrics" json:"metrics"`
	Logging   Logging   `mapstructure:"logging" json:"logging"`
	Kafka     Kafka     `mapstructure:"kafka" json:"kafka"`
}

// Source locates the raw inputs.
type Source struct {
	// MachinesDir holds the machine event files (*.csv).
	MachinesDir string `mapstructure:"machines_dir" json:"machines_dir"`
	// Delimiter is the CSV field separator, a single character.
	Delimiter        string `mapstructure:"delimiter" json:"delimiter"`
	MaterialWorkbook string `mapstructure:"material_workbook" json:"material_workbook"`
	MaterialSheet    string `mapstructure:"material_sheet" json:"material_sheet"`
	PartWorkbook     string `mapstructure:"part_workbook" json:"part_workbook"`
	PartSheet        string `mapstructure:"part_sheet" json:"part_sheet"`
	// Columns names the event file headers.
	Columns EventColumns `mapstructure:"columns" json:"columns"`
	// HeaderMap renames input headers before decoding, for files and
	// sheets whose headers drifted: {"materials": "meterials"}.
	HeaderMap map[string]string `mapstructure:"header_map" json:"header_map"`
}

// EventColumns maps supply-chain event fields to CSV headers.
type EventColumns struct {
	Order            string `mapstructure:"order" json:"order"`
	PartID           string `mapstructure:"part_id" json:"part_id"`
	MachineID        string `mapstructure:"machine_id" json:"machine_id"`
	TimeOfProduction string `mapstructure:"time_of_production" json:"time_of_production"`
	Damaged          string `mapstructure:"damaged" json:"damaged"`
}

// Transform tunes the builders.
type Transform struct {
	// PriceDateLayout is the Go layout of price history dates.
	PriceDateLayout string `mapstructure:"price_date_layout" json:"price_date_layout"`
	// TimeStart and TimeEnd bound the calendar dimension, YYYY-MM-DD, end exclusive.
	TimeStart string `mapstructure:"time_start" json:"time_start"`
	TimeEnd   string `mapstructure:"time_end" json:"time_end"`
	// PricePolicy is "all" or "latest".
	PricePolicy string `mapstructure:"price_policy" json:"price_policy"`
	// RandomSeed seeds the sales date generator; 0 seeds from the clock.
	RandomSeed int64 `mapstructure:"random_seed" json:"random_seed"`
}

// Storage configures the warehouse sink.
type Storage struct {
	// Kind is "mssql", "postgres", "sqlite" or "mysql".
	Kind string `mapstructure:"kind" json:"kind"`
	// DSN wins over the discrete connection fields when set.
	DSN      string `mapstructure:"dsn" json:"dsn"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Database string `mapstructure:"database" json:"database"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"-"`
	// Schema prefixes table names ("dbo").
	Schema          string        `mapstructure:"schema" json:"schema"`
	AutoCreateTable bool          `mapstructure:"auto_create_table" json:"auto_create_table"`
	WriteMode       string        `mapstructure:"write_mode" json:"write_mode"`
	BatchSize       int           `mapstructure:"batch_size" json:"batch_size"`
	WriteWorkers    int           `mapstructure:"write_workers" json:"write_workers"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `mapstructure:"backend" json:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string `mapstructure:"datadog_addr" json:"datadog_addr"`
}

// Logging configures the zap logger.
type Logging struct {
	Level string `mapstructure:"level" json:"level"`
	// File, when set, receives JSON log lines in addition to the console.
	File string `mapstructure:"file" json:"file"`
}

// Kafka configures the part_information listener.
type Kafka struct {
	Brokers  []string `mapstructure:"brokers" json:"brokers"`
	Hostname string   `mapstructure:"hostname" json:"hostname"`
	Port     int      `mapstructure:"port" json:"port"`
	Topic    string   `mapstructure:"topic" json:"topic"`
	Group    string   `mapstructure:"group" json:"group"`
}

var defaults = map[string]any{
	"job":                               "starschema",
	"source.machines_dir":               "data/machines",
	"source.delimiter":                  ",",
	"source.material_workbook":          "data/material-data.xlsx",
	"source.material_sheet":             "Material",
	"source.part_workbook":              "data/part-reference.xlsx",
	"source.part_sheet":                 "Part Information",
	"source.columns.order":              "order",
	"source.columns.part_id":            "partId",
	"source.columns.machine_id":         "machineId",
	"source.columns.time_of_production": "timeOfProduction",
	"source.columns.damaged":            "var5",
	"source.header_map":                 map[string]string{},
	"transform.price_date_layout":       "01-02-2006",
	"transform.time_start":              "1920-01-01",
	"transform.time_end":                "2099-01-01",
	"transform.price_policy":            "all",
	"transform.random_seed":             0,
	"storage.kind":                      "mssql",
	"storage.dsn":                       "",
	"storage.host":                      "",
	"storage.port":                      0,
	"storage.database":                  "",
	"storage.user":                      "",
	"storage.password":                  "",
	"storage.schema":                    "",
	"storage.auto_create_table":         true,
	"storage.write_mode":                "overwrite",
	"storage.batch_size":                5000,
	"storage.write_workers":             4,
	"storage.connect_timeout":           "30s",
	"metrics.backend":                   "none",
	"metrics.pushgateway_url":           "",
	"metrics.datadog_addr":              "",
	"logging.level":                     "info",
	"logging.file":                      "logs/ods_populate_tables_star_schema.log",
	"kafka.brokers":                     []string{},
	"kafka.hostname":                    "",
	"kafka.port":                        9092,
	"kafka.topic":                       "part_information",
	"kafka.group":                       "g2",
}

// legacyEnv binds the variable names of the production deployment.
var legacyEnv = map[string]string{
	"storage.host":     "DB_HOST",
	"storage.database": "DB_NAME",
	"storage.user":     "DB_USER",
	"storage.password": "DB_PASSWORD",
	"kafka.hostname":   "KAFKA_HOSTNAME",
	"kafka.port":       "KAFKA_PORT",
}

// EnvPrefix prefixes every environment override: NAMKIN_STORAGE_KIND.
const EnvPrefix = "NAMKIN"

// Load reads the configuration. An empty path searches for starschema.{yaml,json}
// in ./configs and the working directory and falls back to defaults plus
// environment when none exists. Priority: env > file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("starschema")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// defaultPorts per storage kind.
var defaultPorts = map[string]int{
	"mssql":    1433,
	"postgres": 5432,
	"mysql":    3306,
}

// ConnString returns DSN or assembles one from the discrete fields in the
// driver's native format.
func (s Storage) ConnString() (string, error) {
	if s.DSN != "" {
		return s.DSN, nil
	}
	if s.Kind == "sqlite" {
		if s.Database == "" {
			return "", fmt.Errorf("storage: sqlite needs dsn or database")
		}
		return s.Database, nil
	}
	if s.Host == "" || s.Database == "" {
		return "", fmt.Errorf("storage: %s needs dsn or host and database", s.Kind)
	}
	port := s.Port
	if port == 0 {
		port = defaultPorts[s.Kind]
	}
	hostPort := net.JoinHostPort(s.Host, strconv.Itoa(port))

	switch s.Kind {
	case "mssql":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(s.User, s.Password),
			Host:     hostPort,
			RawQuery: url.Values{"database": {s.Database}}.Encode(),
		}
		return u.String(), nil
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(s.User, s.Password),
			Host:   hostPort,
			Path:   "/" + s.Database,
		}
		return u.String(), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", s.User, s.Password, hostPort, s.Database), nil
	}
	return "", fmt.Errorf("storage: unsupported kind %q", s.Kind)
}

// BrokerList returns Brokers, or hostname:port when only those are set.
func (k Kafka) BrokerList() []string {
	if len(k.Brokers) > 0 {
		return k.Brokers
	}
	if k.Hostname == "" {
		return nil
	}
	port := k.Port
	if port == 0 {
		port = 9092
	}
	return []string{net.JoinHostPort(k.Hostname, strconv.Itoa(port))}
}
