// Package config provides configuration parsing for the paged results server.
//
// # Overview
//
// Configuration is read from a YAML file. Before parsing, ${VAR} and
// ${VAR:-default} references are replaced with environment variable
// values. Keys missing from the file keep the values from DefaultConfig,
// and unknown keys are rejected.
//
//	cfg, err := config.LoadConfig("/etc/oba/paging.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
//	    log.Fatal(errs[0])
//	}
//
// # Example Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
//	paging:
//	  timeLimit: 1h
//	  maxPageSize: 1000
//	  idleDisconnect: true
//	  maxConcurrentSearches: 4
//
//	backend:
//	  name: "userRoot"
//	  baseDN: "dc=example,dc=com"
//	  entries: 1000
//	  indexed: [uid, objectClass]
//
//	simulation:
//	  connections: 4
//	  searchesPerConn: 8
//	  pageSize: 50
//	  abandonRate: 0.1
//	  requestsPerSecond: 500
//	  filter: "(objectClass=person)"
package config
