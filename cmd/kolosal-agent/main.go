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

// Command kolosal-agent is the multi-agent orchestration runtime's server
// binary.
//
// Usage:
//
//	kolosal-agent serve :8080 --config config.yaml
//	kolosal-agent serve --config config.yaml
//	kolosal-agent version
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
)

// CLI is the top-level command tree (mirrors cmd/hector's Version/Serve
// split).
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP server."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// VersionCmd prints the build version and exits 0.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("kolosal-agent %s\n", version)
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("kolosal-agent"),
		kong.Description("Multi-agent orchestration runtime"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&cli); err != nil {
		var cfgErr *configError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, "configuration error:", err)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
