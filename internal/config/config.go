/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	applog "goscreenplay/internal/log"
	"goscreenplay/internal/script"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type ParserConfig struct {
	DefaultTransition    string `yaml:"default_transition"`
	SplitActionSentences bool   `yaml:"split_action_sentences"`
	UnknownLocation      string `yaml:"unknown_location"`
}

type StorageConfig struct {
	SnapshotKeep int `yaml:"snapshot_keep"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Parser        ParserConfig  `yaml:"parser"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Parser: ParserConfig{
			DefaultTransition:    script.DefaultTransition,
			SplitActionSentences: true,
			UnknownLocation:      script.UnknownLocation,
		},
		Storage: StorageConfig{SnapshotKeep: 50},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvDefaultTransition = "GSP_DEFAULT_TRANSITION"
	EnvSplitActions      = "GSP_SPLIT_ACTIONS"
	EnvSnapshotKeep      = "GSP_SNAPSHOT_KEEP"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSP_LOG_LEVEL"
	EnvLogFormat = "GSP_LOG_FORMAT"
	EnvLogSource = "GSP_LOG_SOURCE"
	EnvLogFile   = "GSP_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoScreenplay")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoScreenplay")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "goscreenplay")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is logged and ignored so a broken config never blocks parsing.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if err := loadFile(path, &cfg); err != nil {
		applog.WithComponent("config").Warn("ignoring config file", "path", path, "err", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadFrom is like Load but reads an explicit file path.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	// Start from defaults so booleans omitted in the file keep their default.
	fileCfg := Defaults()
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	mergeInto(cfg, &fileCfg)
	return nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg as YAML to path, creating parent directories.
func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.Parser.DefaultTransition); s != "" {
		dst.Parser.DefaultTransition = strings.ToUpper(s)
	}
	dst.Parser.SplitActionSentences = src.Parser.SplitActionSentences
	if s := strings.TrimSpace(src.Parser.UnknownLocation); s != "" {
		dst.Parser.UnknownLocation = s
	}
	if src.Storage.SnapshotKeep > 0 {
		dst.Storage.SnapshotKeep = src.Storage.SnapshotKeep
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultTransition)); v != "" {
		cfg.Parser.DefaultTransition = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSplitActions)); v != "" {
		cfg.Parser.SplitActionSentences = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnapshotKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Storage.SnapshotKeep = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"parser.default_transition":     EnvDefaultTransition,
		"parser.split_action_sentences": EnvSplitActions,
		"storage.snapshot_keep":         EnvSnapshotKeep,
		"logging.level":                 EnvLogLevel,
		"logging.format":                EnvLogFormat,
		"logging.source":                EnvLogSource,
		"logging.file":                  EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// ParserOptions converts the parser section into script.Options.
func (c AppConfig) ParserOptions() script.Options {
	return script.Options{
		DefaultTransition:    c.Parser.DefaultTransition,
		SplitActionSentences: c.Parser.SplitActionSentences,
		UnknownLocation:      c.Parser.UnknownLocation,
	}
}

// LogOptions converts the logging section into log options.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}
