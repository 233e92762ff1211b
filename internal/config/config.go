// Package config provides configuration parsing for the paged results server.
package config

import "time"

// Config holds the complete server configuration.
type Config struct {
	Logging    LogConfig        `yaml:"logging"`
	Paging     PagingConfig     `yaml:"paging"`
	Backend    BackendConfig    `yaml:"backend"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PagingConfig holds Simple Paged Results configuration.
type PagingConfig struct {
	// TimeLimit is how long a paged search may sit idle between pages
	// before its slot is reclaimed.
	TimeLimit time.Duration `yaml:"timeLimit"`
	// MaxPageSize caps the page size a client may request. 0 means no cap.
	MaxPageSize int `yaml:"maxPageSize"`
	// IdleDisconnect closes a connection whose only paged search expired.
	IdleDisconnect bool `yaml:"idleDisconnect"`
	// MaxConcurrentSearches bounds in-flight searches per connection.
	MaxConcurrentSearches int `yaml:"maxConcurrentSearches"`
}

// BackendConfig holds in-memory backend configuration.
type BackendConfig struct {
	Name    string   `yaml:"name"`
	BaseDN  string   `yaml:"baseDN"`
	Entries int      `yaml:"entries"`
	Indexed []string `yaml:"indexed"`
}

// SimulationConfig holds the client workload used by the simulate command.
type SimulationConfig struct {
	Connections       int     `yaml:"connections"`
	SearchesPerConn   int     `yaml:"searchesPerConn"`
	PageSize          int     `yaml:"pageSize"`
	AbandonRate       float64 `yaml:"abandonRate"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Filter            string  `yaml:"filter"`
}
