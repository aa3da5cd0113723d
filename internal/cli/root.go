/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli provides the goscreenplay command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"goscreenplay/internal/config"
	applog "goscreenplay/internal/log"
	"goscreenplay/internal/version"
)

// env holds per-invocation state shared by the subcommands.
type env struct {
	configPath string
	logLevel   string
	cfg        config.AppConfig
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	e := &env{cfg: config.Defaults()}
	root := &cobra.Command{
		Use:   "goscreenplay",
		Short: "Parse, convert and index screenplays",
		Long: `goscreenplay turns screenplay text, Final Draft (.fdx) and Trelby (.trelby) files
into a tree of sequences, scenes and events.

Examples:
  goscreenplay parse draft.fdx --json
  goscreenplay convert draft.fdx --to trelby -o draft.trelby
  goscreenplay init ./heist "The Heist"
  goscreenplay import ./heist draft.fdx
  goscreenplay search ./heist vault --character ADA`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default: per-user config.yaml)")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override log level (debug|info|warn|error)")

	root.AddCommand(
		newParseCmd(e),
		newOutlineCmd(e),
		newConvertCmd(e),
		newInitCmd(e),
		newImportCmd(e),
		newSearchCmd(e),
		newSceneAtCmd(e),
		newDiffCmd(e),
		newVersionCmd(),
	)
	return root
}

func (e *env) setup(cmd *cobra.Command) error {
	var err error
	if e.configPath != "" {
		e.cfg, err = config.LoadFrom(e.configPath)
		if err != nil {
			return err
		}
	} else if e.cfg, err = config.Load(); err != nil {
		// no resolvable config dir: defaults plus env still apply
		applog.WithComponent("cli").Debug("config path unavailable", slog.Any("err", err))
	}
	opts := e.cfg.LogOptions()
	if e.logLevel != "" {
		opts.Level = e.logLevel
	}
	opts.Writer = cmd.ErrOrStderr()
	applog.Init(opts)
	applog.WithComponent("cli").Debug("start", slog.String("cmd", cmd.Name()), slog.Int("pid", os.Getpid()))
	return nil
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("goscreenplay " + version.String() + "\n"))
			return err
		},
	}
}
