// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config declares the plain struct enumerating every field
// SPEC_FULL.md §2.3 names: LLM backend config, worker counts, queue bound,
// retention window, heartbeat interval, log rotation settings, bearer
// token, listen address. The core consumes an already-built *Config; it
// never parses YAML/JSON itself (spec.md §1's explicit Non-goal) — that is
// cmd/kolosal-agent's job, mirroring the teacher's pkg/config/loader.go
// layering without its etcd/consul/zk multi-backend support.
package config

import "time"

// Config is the full set of runtime-tunable parameters the core accepts.
type Config struct {
	// ListenAddress is the HTTP surface's bind address, e.g. ":8080".
	ListenAddress string `yaml:"listen_address"`

	// LLM is the inference backend configuration. Only Endpoint is read:
	// cmd/kolosal-agent builds the shared inference client from it. Agents
	// do not inherit Model, Temperature, MaxTokens or Timeout from here;
	// they take those from their own create request.
	LLM LLMConfig `yaml:"llm"`

	// Workers is the async service layer's worker pool size. Zero means
	// "use runtime.NumCPU()".
	Workers int `yaml:"workers"`
	// QueueCapacity is Q_max, the async queue's upper bound (default 1000).
	QueueCapacity int `yaml:"queue_capacity"`
	// RetentionWindow is how long a terminal operation result is kept
	// before the reaper deletes it (default 1 hour).
	RetentionWindow time.Duration `yaml:"retention_window"`
	// ReapInterval is how often the retention reaper runs (default 5 min).
	ReapInterval time.Duration `yaml:"reap_interval"`

	// DefaultMaxConcurrentJobs is the default per-agent semaphore size
	// (default 5). The runtime does not read it: agent.New applies its own
	// default of 5 when an agent's config omits MaxConcurrentJobs.
	DefaultMaxConcurrentJobs int `yaml:"default_max_concurrent_jobs"`
	// DefaultHeartbeatInterval is the default agent heartbeat interval.
	DefaultHeartbeatInterval time.Duration `yaml:"default_heartbeat_interval"`

	// BearerToken, when non-empty, is sent as Authorization: Bearer <token>
	// to the inference backend (spec.md §1's only built-in auth).
	BearerToken string `yaml:"bearer_token"`

	// LogLevel is the minimum level the logger emits ("trace".."fatal").
	LogLevel string `yaml:"log_level"`
	// LogFilePath, when non-empty, enables the rotating file appender.
	LogFilePath string `yaml:"log_file_path"`
	// LogFileMaxBytes is the rotation threshold (default 50MB).
	LogFileMaxBytes int64 `yaml:"log_file_max_bytes"`
	// LogFileBackups is how many rotated generations to keep.
	LogFileBackups int `yaml:"log_file_backups"`
}

// Defaults returns a Config with every zero-valued field filled in with the
// defaults spec.md names.
func Defaults() *Config {
	return &Config{
		ListenAddress:            ":8080",
		Workers:                  0, // runtime.NumCPU()
		QueueCapacity:            1000,
		RetentionWindow:          time.Hour,
		ReapInterval:             5 * time.Minute,
		DefaultMaxConcurrentJobs: 5,
		DefaultHeartbeatInterval: 30 * time.Second,
		LogLevel:                 "info",
		LogFileMaxBytes:          50 * 1024 * 1024,
		LogFileBackups:           5,
	}
}

// LLMConfig is the default inference backend configuration.
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}
