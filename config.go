// Copyright 2026 The Gocluster Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cluster

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// StatusConfig controls the status (REST) endpoint served by the master.
type StatusConfig struct {
	Listen       string `yaml:"listen"`
	User         string `yaml:"user"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
}

// LogConfig controls logging.  File, if set, adds a rotated log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
}

// Config holds the cluster settings.  The zero value is not useful; start
// from DefaultConfig.
type Config struct {
	Instances     int           `yaml:"cluster"`
	DrainInterval time.Duration `yaml:"drain_interval"`
	MaxDrain      time.Duration `yaml:"max_drain"`  // 0 waits forever
	KillAfter     time.Duration `yaml:"kill_after"` // 0 never escalates
	ForkRetryMin  time.Duration `yaml:"fork_retry_min"`
	ForkRetryMax  time.Duration `yaml:"fork_retry_max"`
	Listen        string        `yaml:"listen"`
	MaxConns      int           `yaml:"max_conns"`
	PIDFile       string        `yaml:"pid_file"`
	Status        StatusConfig  `yaml:"status"`
	Log           LogConfig     `yaml:"log"`
}

const (
	DefaultDrainInterval = 100 * time.Millisecond
	DefaultForkRetryMin  = 100 * time.Millisecond
	DefaultForkRetryMax  = 10 * time.Second
)

func DefaultConfig() *Config {
	return &Config{
		DrainInterval: DefaultDrainInterval,
		ForkRetryMin:  DefaultForkRetryMin,
		ForkRetryMax:  DefaultForkRetryMax,
		Listen:        ":8080",
		PIDFile:       "clusterd.pid",
		Status: StatusConfig{
			Listen: "127.0.0.1:8321",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}

// ParseConfig reads YAML on top of the defaults, and validates the
// result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrBadConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Instances < 0:
		return bad("cluster must not be negative")
	case c.DrainInterval <= 0:
		return bad("drain_interval must be positive")
	case c.MaxDrain < 0:
		return bad("max_drain must not be negative")
	case c.KillAfter < 0:
		return bad("kill_after must not be negative")
	case c.ForkRetryMin <= 0:
		return bad("fork_retry_min must be positive")
	case c.ForkRetryMax < c.ForkRetryMin:
		return bad("fork_retry_max (%v) is less than fork_retry_min (%v)",
			c.ForkRetryMax, c.ForkRetryMin)
	case c.MaxConns < 0:
		return bad("max_conns must not be negative")
	case c.Log.MaxSize < 0 || c.Log.MaxBackups < 0:
		return bad("log rotation limits must not be negative")
	}
	if _, ok := ParseSeverity(c.Log.Level); !ok {
		return bad("unknown log level %q", c.Log.Level)
	}
	if (c.Status.User == "") != (c.Status.PasswordHash == "") {
		return bad("status user and password_hash must be set together")
	}
	if c.Status.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Status.PasswordHash)); err != nil {
			return bad("status password_hash: %v", err)
		}
	}
	return nil
}

// Level returns the configured log severity.
func (c *Config) Level() Severity {
	sev, _ := ParseSeverity(c.Log.Level)
	return sev
}
