package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// DateLayout is the layout of transform.time_start and transform.time_end.
const DateLayout = "2006-01-02"

var (
	storageKinds   = map[string]struct{}{"mssql": {}, "postgres": {}, "sqlite": {}, "mysql": {}}
	writeModes     = map[string]struct{}{"": {}, "overwrite": {}, "append": {}}
	pricePolicies  = map[string]struct{}{"": {}, "all": {}, "latest": {}}
	metricBackends = map[string]struct{}{"": {}, "none": {}, "pushgateway": {}, "datadog": {}}
)

// Validate performs static checks over cfg. It does not touch the file
// system or the network; callers decide whether warnings are fatal.
//
//	issues := config.Validate(*cfg)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Validate(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSource(cfg.Source)...)
	issues = append(issues, validateTransform(cfg.Transform)...)
	issues = append(issues, validateStorage(cfg.Storage)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateLogging(cfg.Logging)...)
	issues = append(issues, validateKafka(cfg.Kafka)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	required := []struct {
		path, val string
	}{
		{"source.machines_dir", s.MachinesDir},
		{"source.material_workbook", s.MaterialWorkbook},
		{"source.material_sheet", s.MaterialSheet},
		{"source.part_workbook", s.PartWorkbook},
		{"source.part_sheet", s.PartSheet},
		{"source.columns.order", s.Columns.Order},
		{"source.columns.part_id", s.Columns.PartID},
		{"source.columns.machine_id", s.Columns.MachineID},
		{"source.columns.time_of_production", s.Columns.TimeOfProduction},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     r.path,
				Message:  r.path + " must not be empty",
			})
		}
	}
	if strings.TrimSpace(s.Columns.Damaged) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.columns.damaged",
			Message:  "no damage column configured; isDamaged will be NULL for every fact row",
		})
	}
	if utf8.RuneCountInString(s.Delimiter) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.delimiter",
			Message:  fmt.Sprintf("delimiter must be a single character, got %q", s.Delimiter),
		})
	}
	return issues
}

func validateTransform(t Transform) []Issue {
	var issues []Issue

	if _, ok := pricePolicies[t.PricePolicy]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.price_policy",
			Message:  fmt.Sprintf("unknown price policy %q (want all|latest)", t.PricePolicy),
		})
	}
	if t.PriceDateLayout != "" {
		sample := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC).Format(t.PriceDateLayout)
		if _, err := time.Parse(t.PriceDateLayout, sample); err != nil || sample == t.PriceDateLayout {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "transform.price_date_layout",
				Message:  fmt.Sprintf("%q is not a usable Go date layout", t.PriceDateLayout),
			})
		}
	}

	start, errS := time.Parse(DateLayout, t.TimeStart)
	if errS != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.time_start",
			Message:  fmt.Sprintf("must be YYYY-MM-DD: %v", errS),
		})
	}
	end, errE := time.Parse(DateLayout, t.TimeEnd)
	if errE != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.time_end",
			Message:  fmt.Sprintf("must be YYYY-MM-DD: %v", errE),
		})
	}
	if errS == nil && errE == nil && !start.Before(end) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "transform.time_end",
			Message:  "time_end must be after time_start",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if _, ok := storageKinds[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q (want mssql|postgres|sqlite|mysql)", s.Kind),
		})
	} else if _, err := s.ConnString(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  err.Error(),
		})
	}
	if _, ok := writeModes[strings.ToLower(s.WriteMode)]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.write_mode",
			Message:  fmt.Sprintf("unknown write mode %q (want overwrite|append)", s.WriteMode),
		})
	}
	if strings.EqualFold(s.WriteMode, "append") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.write_mode",
			Message:  "append rewrites keyed dimensions (dim_machine, dim_contract, dim_time); a second run fails on their primary keys",
		})
	}
	if s.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.batch_size",
			Message:  "batch_size must be > 0",
		})
	}
	if s.WriteWorkers <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.write_workers",
			Message:  "write_workers must be > 0",
		})
	}
	if s.Kind == "sqlite" && s.WriteWorkers > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.write_workers",
			Message:  "sqlite serializes writers; extra workers only queue",
		})
	}
	if s.Schema != "" && s.Kind == "sqlite" && s.Schema != "main" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.schema",
			Message:  fmt.Sprintf("sqlite schema %q must be an attached database", s.Schema),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	if _, ok := metricBackends[m.Backend]; !ok {
		return []Issue{{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none|pushgateway|datadog)", m.Backend),
		}}
	}
	switch m.Backend {
	case "pushgateway":
		if m.PushgatewayURL == "" {
			return []Issue{{Severity: SeverityError, Path: "metrics.pushgateway_url", Message: "pushgateway backend requires a URL"}}
		}
	case "datadog":
		if m.DatadogAddr == "" {
			return []Issue{{Severity: SeverityError, Path: "metrics.datadog_addr", Message: "datadog backend requires an agent address"}}
		}
	}
	return nil
}

func validateLogging(l Logging) []Issue {
	if l.Level == "" {
		return nil
	}
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     "logging.level",
			Message:  err.Error(),
		}}
	}
	return nil
}

func validateKafka(k Kafka) []Issue {
	var issues []Issue
	if len(k.BrokerList()) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "kafka.brokers",
			Message:  "no brokers configured; the listen command will not start",
		})
	}
	if k.Topic == "" {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: "kafka.topic", Message: "topic is empty"})
	}
	if k.Group == "" {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: "kafka.group", Message: "consumer group is empty"})
	}
	return issues
}
