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

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/config"
)

// configError marks an error as a configuration problem (exit code 2),
// distinct from a fatal startup error (exit code 1) — spec.md §6 "CLI".
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func newConfigError(format string, args ...any) *configError {
	return &configError{err: fmt.Errorf(format, args...)}
}

// loadConfig reads path as YAML over config.Defaults(), or returns the
// defaults unchanged if path is empty. Every field the file omits keeps its
// default (spec.md §2.3 "the core consumes an already-built *Config").
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Defaults()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, newConfigError("reading config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, newConfigError("parsing config file %q: %w", path, err)
	}
	return cfg, nil
}
