package config

import "time"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Paging: PagingConfig{
			TimeLimit:             time.Hour,
			MaxPageSize:           1000,
			IdleDisconnect:        true,
			MaxConcurrentSearches: 4,
		},
		Backend: BackendConfig{
			Name:    "userRoot",
			BaseDN:  "dc=example,dc=com",
			Entries: 1000,
			Indexed: []string{"uid", "objectClass"},
		},
		Simulation: SimulationConfig{
			Connections:       4,
			SearchesPerConn:   8,
			PageSize:          50,
			AbandonRate:       0.1,
			RequestsPerSecond: 500,
			Filter:            "(objectClass=person)",
		},
	}
}
