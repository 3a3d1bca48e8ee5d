/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath    string
	ipv6          bool
	tunnel        string
	stats         bool
	detailedStats bool
	writeConfig   string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "udstunnel",
		Short: "TLS-fronted TCP tunnel broker",
		Long: `udstunnel terminates authenticated client sessions on a public TLS
endpoint, consults an external ticket-authorization service for a dispatch
decision, and bidirectionally relays bytes to the returned backend.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "configuration file path (json, yaml or toml)")
	cmd.PersistentFlags().BoolVar(&flags.ipv6, "ipv6", false, "bind/dial using IPv6 instead of IPv4")
	cmd.Flags().StringVar(&flags.tunnel, "tunnel", "", "override host:port to probe for --stats/--detailed-stats (defaults to the configured listener)")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "print a one-line counters report instead of starting the broker")
	cmd.Flags().BoolVar(&flags.detailedStats, "detailed-stats", false, "print a human-readable counters report instead of starting the broker")
	cmd.Flags().StringVar(&flags.writeConfig, "write-config", "", "write a default configuration file to the given path (extension selects json/yaml/toml) and exit")

	return cmd
}

func runRoot(flags *rootFlags) error {
	if flags.writeConfig != "" {
		return writeDefaultConfig(flags.writeConfig)
	}

	if flags.stats || flags.detailedStats {
		return runStats(flags)
	}

	return runBroker(flags)
}

// defaultConfigPath mirrors the teacher's cobra.getDefaultPath: a
// dotfile under the user's home directory when --config is omitted.
func defaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".udstunnel.yaml"), nil
}
