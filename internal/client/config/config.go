// Package config handles configuration for the sign-in client.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gRPC endpoint.
//   - Login: login to sign in with; prompted for when empty.
//   - Timeout: deadline for the whole sign-in exchange.
type Config struct {
	ServerEndpointAddr string
	Login              string
	Timeout            time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Timeout = 30 * time.Second
}

// LoadConfig applies defaults and then command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)
	return cfg
}

// parseFlags populates Config from command-line flags.
//
//	-a string   address and port of the server
//	-l string   login
//	-w int      timeout, seconds
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-l", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.Login, "l", cfg.Login, "login")
	timeout := fs.Int("w", int(cfg.Timeout.Seconds()), "timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Timeout = time.Duration(*timeout) * time.Second
}
