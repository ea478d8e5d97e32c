package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept both "24h" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	MetricsAddr      string         `json:"metrics_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	UsersFile        string         `json:"users_file"`
	SecretKey        string         `json:"secret_key"`
	TokenTTL         timex.Duration `json:"token_ttl"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Keys missing from the file leave the current value untouched.
// An unreadable or malformed file panics, like a bad flag does.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIfNotEmpty(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIfNotEmpty(&config.MetricsAddr, c.MetricsAddr)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.UsersFile, c.UsersFile)
	setIfNotEmpty(&config.SecretKey, c.SecretKey)
	if c.TokenTTL.Duration != 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
