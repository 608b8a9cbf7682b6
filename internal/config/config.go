package config

import (
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strings"
	"time"
)

const (
	EnvPrefix     = "DOCSHIFT"
	DefaultFile   = "docshift.yaml"
	DefaultFolder = "./migrations"
	DefaultTable  = "_migrations"

	keyDirectory   = "migrations.directory"
	keyRelativeTo  = "migrations.relative_to"
	keyTable       = "migrations.table"
	keyDatabaseURL = "migrations.database_url"
	keyWait        = "migrations.wait"
	keyDebug       = "debug"
	keyNoColor     = "no_color"
)

var (
	ErrInvalidOp         = errors.New("operation must be either up or down")
	ErrMissingDatabase   = errors.New("database url was not defined")
	ErrMissingDirectory  = errors.New("migrations directory was not defined")
	ErrConfigFileExists  = errors.New("config file already exists")
	ErrInvalidWaitPeriod = errors.New("wait period must not be negative")
)

type Op string

const (
	OpUp   Op = "up"
	OpDown Op = "down"
)

func (o Op) Direction() migration.Direction {
	if o == OpDown {
		return migration.Down
	}

	return migration.Up
}

// Config is the resolved and validated set of options of one invocation
type Config struct {
	Op                  Op
	MigrationsDirectory string
	RelativeTo          string
	MigrationsTable     string
	DatabaseURL         string
	Debug               bool
	NoColor             bool
	WaitTimeout         time.Duration
}

// New creates a viper instance reading DOCSHIFT_ prefixed environment variables,
// e.g. DOCSHIFT_MIGRATIONS_DATABASE_URL or the shorter DOCSHIFT_DATABASE_URL
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(keyDirectory, DefaultFolder)
	v.SetDefault(keyTable, DefaultTable)
	v.SetDefault(keyWait, time.Duration(0))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv(keyDatabaseURL, EnvPrefix+"_MIGRATIONS_DATABASE_URL", EnvPrefix+"_DATABASE_URL")
	_ = v.BindEnv(keyDirectory, EnvPrefix+"_MIGRATIONS_DIRECTORY", EnvPrefix+"_FOLDER")
	_ = v.BindEnv(keyTable, EnvPrefix+"_MIGRATIONS_TABLE", EnvPrefix+"_TABLE")

	return v
}

// BindFlags lets command line flags take precedence over env and file values
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"db":          keyDatabaseURL,
		"folder":      keyDirectory,
		"relative-to": keyRelativeTo,
		"table":       keyTable,
		"wait":        keyWait,
		"debug":       keyDebug,
		"no-color":    keyNoColor,
	}

	for flag, key := range bindings {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "could not bind flag %s", flag)
		}
	}

	return nil
}

// ReadFile loads a yaml config file. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	if !explicit && !FileExists(path) {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "could not read config file %s", path)
	}

	return nil
}

// Resolve builds a Config for op from everything bound to v. Configs
// of migrating operations are validated.
func Resolve(v *viper.Viper, op Op) (Config, error) {
	cfg := Config{
		Op:                  op,
		MigrationsDirectory: expand(v.GetString(keyDirectory)),
		RelativeTo:          expand(v.GetString(keyRelativeTo)),
		MigrationsTable:     expand(v.GetString(keyTable)),
		DatabaseURL:         expand(v.GetString(keyDatabaseURL)),
		Debug:               v.GetBool(keyDebug),
		NoColor:             v.GetBool(keyNoColor),
		WaitTimeout:         v.GetDuration(keyWait),
	}

	if op == "" {
		return cfg, nil
	}

	return cfg, cfg.Validate()
}

// Validate reports the first invalid option as a validation error
func (c Config) Validate() error {
	if c.Op != OpUp && c.Op != OpDown {
		return &migration.ValidationError{Err: errors.Wrapf(ErrInvalidOp, "[%s]", c.Op)}
	}

	if c.DatabaseURL == "" {
		return &migration.ValidationError{Err: ErrMissingDatabase}
	}

	if c.MigrationsDirectory == "" {
		return &migration.ValidationError{Err: ErrMissingDirectory}
	}

	if err := docdb.ValidateIdentifier(c.MigrationsTable); err != nil {
		return &migration.ValidationError{Err: errors.Wrap(err, "migrations table")}
	}

	if c.WaitTimeout < 0 {
		return &migration.ValidationError{Err: ErrInvalidWaitPeriod}
	}

	return nil
}

// expand replaces a %%NAME%% value with the NAME environment variable
func expand(value string) string {
	if len(value) > 4 && strings.HasPrefix(value, "%%") && strings.HasSuffix(value, "%%") {
		return os.Getenv(strings.Trim(value, "%"))
	}

	return value
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
