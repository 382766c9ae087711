package main

import (
	"flag"
	"log"
	"os"
	"strconv"
)

// ServerConfig holds the server's startup configuration.
type ServerConfig struct {
	Addr               string
	SnapshotEveryTicks int
	LogLevel           string
}

// configResolver describes how to resolve one configuration value: flag
// first, then environment variable, then default. Lifted directly from
// achemdb's cmd/achemdb-server/config.go so adding an option is a one-entry
// change.
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads ServerConfig from CLI flags and environment
// variables.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "MCELLGO_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "snapshot-every-ticks",
			envVarName:  "MCELLGO_SNAPSHOT_EVERY_TICKS",
			defaultVal:  "0",
			description: "emit a snapshot notification every N ticks while a partition is running; 0 disables",
			setter: func(c *ServerConfig, v string) {
				if val, err := strconv.Atoi(v); err == nil {
					c.SnapshotEveryTicks = val
				} else {
					log.Printf("invalid value for snapshot-every-ticks: %s, using default 0", v)
					c.SnapshotEveryTicks = 0
				}
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "MCELLGO_LOG_LEVEL",
			defaultVal:  "info",
			description: "log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}
	flag.Parse()

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}
