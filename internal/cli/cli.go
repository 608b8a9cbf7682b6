package cli

import (
	"context"
	"github.com/denismitr/docshift"
	"github.com/denismitr/docshift/internal/config"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/internal/source"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"time"
)

var (
	ErrFolderInvalid = errors.New("migrations folder is invalid")
)

type (
	CloserFunc func() error

	App struct {
		cfg      config.Config
		migrator *docshift.Migrator
	}
)

// New connects to the database named in cfg. Migration code is looked up in registry.
func New(cfg config.Config, registry *migration.Registry, p logger.Printer) (*App, CloserFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	m, closer, err := createMigrator(cfg, registry, p)
	if err != nil {
		return nil, nil, err
	}

	return &App{
		cfg:      cfg,
		migrator: m,
	}, CloserFunc(closer), nil
}

// Run migrates in the direction of the configured operation
func (app *App) Run(ctx context.Context) (*docshift.State, error) {
	return app.migrator.Run(ctx, app.cfg.Op.Direction())
}

// CreateMigration scaffolds a migration file in the configured folder
func CreateMigration(cfg config.Config, name string, clock migration.ClockFunc) (migration.Unit, error) {
	if clock == nil {
		clock = time.Now
	}

	lfs := source.NewLocalFolderSource(cfg.MigrationsDirectory, cfg.RelativeTo, nil, createLogger(cfg, nil))
	if !lfs.IsValid() {
		return migration.Unit{}, errors.Wrapf(ErrFolderInvalid, "[%s]", lfs.Folder())
	}

	return lfs.Create(clock(), name)
}

// InitCfg writes a config file stub to path
func InitCfg(path string) error {
	return config.WriteStub(path)
}
