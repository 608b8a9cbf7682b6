package config

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"os"
)

type (
	migrationsSection struct {
		Directory   string `yaml:"directory"`
		RelativeTo  string `yaml:"relative_to,omitempty"`
		Table       string `yaml:"table"`
		DatabaseURL string `yaml:"database_url"`
		Wait        string `yaml:"wait,omitempty"`
	}

	configFile struct {
		Version    string            `yaml:"version"`
		Migrations migrationsSection `yaml:"migrations"`
	}
)

func stub() configFile {
	return configFile{
		Version: "1",
		Migrations: migrationsSection{
			Directory:   DefaultFolder,
			Table:       DefaultTable,
			DatabaseURL: "%%DATABASE_URL%%",
			Wait:        "0s",
		},
	}
}

// WriteStub creates a config file with default values, existing files are kept
func WriteStub(path string) error {
	if path == "" {
		path = DefaultFile
	}

	if FileExists(path) {
		return errors.Wrapf(ErrConfigFileExists, "[%s]", path)
	}

	b, err := yaml.Marshal(stub())
	if err != nil {
		return errors.Wrap(err, "could not encode config stub")
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	return nil
}
