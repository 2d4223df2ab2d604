package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/net/html/charset"

	"github.com/stackvity/doc-scanner/pkg/docscan"
)

const (
	EnvPrefix         = "DOCSCAN"
	DefaultConfigName = "docscan"
)

// WorkspaceConfig holds the settings of the workspace command.
type WorkspaceConfig struct {
	Roots       []string `mapstructure:"roots"`
	ChangedOnly bool     `mapstructure:"changedOnly"`
	Since       string   `mapstructure:"since"`
}

// Config is the merged CLI configuration.
type Config struct {
	Options   docscan.Options
	Workspace WorkspaceConfig
}

// flagKeys maps CLI flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"verbose":       "verbose",
	"output-format": "outputFormat",
	"ignore":        "ignore",
	"skip-vendored": "skipVendored",
	"encoding":      "defaultEncoding",
	"root":          "workspace.roots",
	"changed-only":  "workspace.changedOnly",
	"since":         "workspace.since",
}

// LoadAndValidate loads configuration from all sources (defaults, file,
// profile, env, flags), validates the merged result and sets up the logger.
// Flags that a command does not define are simply not bound.
func LoadAndValidate(cfgFile, profileName string, flags *pflag.FlagSet) (Config, *slog.Logger, error) {
	var cfg Config
	v := viper.New()

	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
			v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
		} else {
			tempLogger.Debug("No user home directory, searching the working directory only", slog.Any("error", err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", used), slog.Any("error", err))
			return cfg, tempLogger, fmt.Errorf("error reading config file '%s': %w", used, err)
		}
	} else {
		cfg.Options.ConfigFilePath = v.ConfigFileUsed()
	}

	// --- Apply Profile ---
	cfg.Options.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		profileSettings := v.Sub(profileKey)
		if profileSettings == nil {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			err := fmt.Errorf("%w: profile '%s' not found in config file '%s'", docscan.ErrConfigValidation, profileName, configPath)
			tempLogger.Error(err.Error())
			return cfg, tempLogger, err
		}
		if err := v.MergeConfigMap(profileSettings.AllSettings()); err != nil {
			return cfg, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
		tempLogger.Debug("Applied configuration profile", slog.String("profile", profileName))
	}

	// --- Bind Environment Variables ---
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags (Highest Priority) ---
	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return cfg, tempLogger, fmt.Errorf("error binding flag '--%s': %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg.Options); err != nil {
		return cfg, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	if err := v.UnmarshalKey("workspace", &cfg.Workspace); err != nil {
		return cfg, tempLogger, fmt.Errorf("error unmarshalling workspace configuration: %w", err)
	}

	// Negative flags only ever switch a feature off.
	if flags != nil {
		if noTui, _ := flags.GetBool("no-tui"); noTui {
			cfg.Options.TuiEnabled = false
		}
		if noColor, _ := flags.GetBool("no-color"); noColor {
			cfg.Options.ColorEnabled = false
		}
	}

	// --- Setup Final Logger ---
	// Session lifecycle logs are Info; a plain run keeps stderr for problems.
	logLevel := slog.LevelWarn
	if cfg.Options.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	cfg.Options.Logger = logHandler

	if err := validateAndDerive(&cfg, logger); err != nil {
		return cfg, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", cfg.Options.ConfigFilePath),
		slog.String("profile", cfg.Options.ProfileName),
		slog.Bool("verbose", cfg.Options.Verbose),
		slog.String("outputFormat", string(cfg.Options.OutputFormat)),
	)
	return cfg, logger, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", docscan.DefaultVerbose)
	v.SetDefault("tuiEnabled", docscan.DefaultTuiEnabled)
	v.SetDefault("color", docscan.DefaultColorEnabled)
	v.SetDefault("outputFormat", string(docscan.DefaultOutputFormat))
	v.SetDefault("ignore", []string{})
	v.SetDefault("skipVendored", docscan.DefaultSkipVendored)
	v.SetDefault("defaultEncoding", "")
	v.SetDefault("workspace.roots", []string{})
	v.SetDefault("workspace.changedOnly", docscan.DefaultChangedOnly)
	v.SetDefault("workspace.since", "")
}

func isValidEnumValue[T ~string](value T, allowedValues []T) bool {
	return slices.Contains(allowedValues, value)
}

func validateAndDerive(cfg *Config, logger *slog.Logger) error {
	opts := &cfg.Options

	opts.OutputFormat = docscan.OutputFormat(strings.ToLower(string(opts.OutputFormat)))
	allowedOutputFormat := []docscan.OutputFormat{docscan.OutputFormatText, docscan.OutputFormatJSON, docscan.OutputFormatYAML}
	if !isValidEnumValue(opts.OutputFormat, allowedOutputFormat) {
		err := fmt.Errorf("%w: invalid value '%s' for key 'outputFormat' (flag --output-format). Allowed: %v", docscan.ErrConfigValidation, opts.OutputFormat, allowedOutputFormat)
		logger.Error(err.Error(), slog.String("key", "outputFormat"), slog.String("value", string(opts.OutputFormat)))
		return err
	}

	if opts.DefaultEncoding != "" {
		if enc, _ := charset.Lookup(opts.DefaultEncoding); enc == nil {
			err := fmt.Errorf("%w: unknown encoding '%s' for key 'defaultEncoding' (flag --encoding)", docscan.ErrConfigValidation, opts.DefaultEncoding)
			logger.Error(err.Error(), slog.String("key", "defaultEncoding"), slog.String("value", opts.DefaultEncoding))
			return err
		}
	}

	for _, p := range opts.IgnorePatterns {
		if strings.TrimSpace(strings.TrimPrefix(p, "!")) == "" {
			err := fmt.Errorf("%w: empty ignore pattern '%s' for key 'ignore' (flag --ignore)", docscan.ErrConfigValidation, p)
			logger.Error(err.Error(), slog.String("key", "ignore"))
			return err
		}
	}

	if cfg.Workspace.ChangedOnly && cfg.Workspace.Since != "" {
		err := fmt.Errorf("%w: cannot combine 'workspace.changedOnly' (--changed-only) with 'workspace.since' (--since)", docscan.ErrConfigValidation)
		logger.Error(err.Error())
		return err
	}

	// Verbose logging and the TUI both draw on stderr.
	if opts.Verbose && opts.TuiEnabled {
		logger.Debug("Verbose logging enabled, disabling TUI")
		opts.TuiEnabled = false
	}
	return nil
}
