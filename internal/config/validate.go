package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/backend"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of validation errors.
// An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error

	errs = append(errs, validateLogConfig(&config.Logging)...)
	errs = append(errs, validatePagingConfig(&config.Paging)...)
	errs = append(errs, validateBackendConfig(&config.Backend)...)
	errs = append(errs, validateSimulationConfig(&config.Simulation)...)

	return errs
}

// validateLogConfig validates logging configuration.
func validateLogConfig(config *LogConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if config.Level != "" && !validLevels[strings.ToLower(config.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be debug, info, warn, or error",
		})
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if config.Format != "" && !validFormats[strings.ToLower(config.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be text or json",
		})
	}

	if config.Output != "" && config.Output != "stdout" && config.Output != "stderr" {
		dir := filepath.Dir(config.Output)
		if !filepath.IsAbs(config.Output) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: "must be stdout, stderr, or an absolute file path",
			})
		} else if _, err := os.Stat(dir); os.IsNotExist(err) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: fmt.Sprintf("directory %s does not exist", dir),
			})
		}
	}

	return errs
}

// validatePagingConfig validates paged results configuration.
func validatePagingConfig(config *PagingConfig) []error {
	var errs []error

	if config.TimeLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "paging.timeLimit",
			Message: "must not be negative",
		})
	}
	if config.MaxPageSize < 0 {
		errs = append(errs, ValidationError{
			Field:   "paging.maxPageSize",
			Message: "must not be negative",
		})
	}
	if config.MaxConcurrentSearches < 1 {
		errs = append(errs, ValidationError{
			Field:   "paging.maxConcurrentSearches",
			Message: "must be at least 1",
		})
	}

	return errs
}

// validateBackendConfig validates backend configuration.
func validateBackendConfig(config *BackendConfig) []error {
	var errs []error

	if config.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.name",
			Message: "is required",
		})
	}
	if config.BaseDN == "" || !strings.Contains(config.BaseDN, "=") {
		errs = append(errs, ValidationError{
			Field:   "backend.baseDN",
			Message: "must be a distinguished name",
		})
	}
	if config.Entries < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.entries",
			Message: "must not be negative",
		})
	}
	for i, attr := range config.Indexed {
		if strings.TrimSpace(attr) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("backend.indexed[%d]", i),
				Message: "must not be empty",
			})
		}
	}

	return errs
}

// validateSimulationConfig validates the simulated workload.
func validateSimulationConfig(config *SimulationConfig) []error {
	var errs []error

	if config.Connections < 1 {
		errs = append(errs, ValidationError{
			Field:   "simulation.connections",
			Message: "must be at least 1",
		})
	}
	if config.SearchesPerConn < 1 {
		errs = append(errs, ValidationError{
			Field:   "simulation.searchesPerConn",
			Message: "must be at least 1",
		})
	}
	if config.PageSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "simulation.pageSize",
			Message: "must be at least 1",
		})
	}
	if config.AbandonRate < 0 || config.AbandonRate > 1 {
		errs = append(errs, ValidationError{
			Field:   "simulation.abandonRate",
			Message: "must be between 0 and 1",
		})
	}
	if config.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "simulation.requestsPerSecond",
			Message: "must not be negative",
		})
	}
	if _, err := backend.ParseFilter(config.Filter); err != nil {
		errs = append(errs, ValidationError{
			Field:   "simulation.filter",
			Message: err.Error(),
		})
	}

	return errs
}
