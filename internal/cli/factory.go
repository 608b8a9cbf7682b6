package cli

import (
	"context"
	"github.com/denismitr/docshift"
	"github.com/denismitr/docshift/internal/config"
	"github.com/denismitr/docshift/internal/docdb/mongodoc"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/migration"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"log"
	"os"
	"strings"
	"time"
)

const mongoConnectTimeout = 10 * time.Second

var ErrUnknownScheme = errors.New("unknown database url scheme")

type (
	// handleFactory returns the handle option and a release func freeing
	// what it opened when no migrator takes ownership of it
	handleFactory    func(cfg config.Config) (docshift.OptionFunc, CloserFunc, error)
	handleFactoryMap map[string]handleFactory
)

var factories = handleFactoryMap{
	"mysql":       openMySQL,
	"postgres":    openPostgres,
	"postgresql":  openPostgres,
	"sqlite":      openSqlite,
	"sqlite3":     openSqlite,
	"mongodb":     openMongo,
	"mongodb+srv": openMongo,
	"bolt":        openBolt,
	"memory":      openMemory,
}

func noRelease() error { return nil }

func openMySQL(cfg config.Config) (docshift.OptionFunc, CloserFunc, error) {
	db, err := sqlx.Open("mysql", strings.TrimPrefix(cfg.DatabaseURL, "mysql://"))
	if err != nil {
		return nil, nil, err
	}

	return docshift.UseMySQL(db.DB), db.Close, nil
}

func openPostgres(cfg config.Config) (docshift.OptionFunc, CloserFunc, error) {
	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	return docshift.UsePostgres(db.DB), db.Close, nil
}

func openSqlite(cfg config.Config) (docshift.OptionFunc, CloserFunc, error) {
	path := pathOf(cfg.DatabaseURL)
	if path == "" {
		return nil, nil, errors.Errorf("sqlite database path is missing in [%s]", cfg.DatabaseURL)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, nil, err
	}

	return docshift.UseSqlite(db.DB), db.Close, nil
}

func openMongo(cfg config.Config) (docshift.OptionFunc, CloserFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	client, database, err := mongodoc.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	release := func() error {
		return client.Disconnect(context.Background())
	}

	return docshift.UseMongo(client, database), release, nil
}

func openBolt(cfg config.Config) (docshift.OptionFunc, CloserFunc, error) {
	path := pathOf(cfg.DatabaseURL)
	if path == "" {
		return nil, nil, errors.Errorf("bolt file path is missing in [%s]", cfg.DatabaseURL)
	}

	return docshift.UseBolt(path), noRelease, nil
}

func openMemory(_ config.Config) (docshift.OptionFunc, CloserFunc, error) {
	return docshift.UseInMemory(), noRelease, nil
}

func schemeOf(url string) string {
	i := strings.Index(url, "://")
	if i < 0 {
		return ""
	}

	return strings.ToLower(url[:i])
}

func pathOf(url string) string {
	i := strings.Index(url, "://")
	if i < 0 {
		return url
	}

	return url[i+3:]
}

func printerOrStdout(p logger.Printer) logger.Printer {
	if p == nil {
		return log.New(os.Stdout, "", 0)
	}

	return p
}

func createLogger(cfg config.Config, p logger.Printer) logger.Logger {
	if cfg.NoColor {
		return logger.NewBWLogger(printerOrStdout(p), cfg.Debug, cfg.Debug)
	}

	return logger.NewColorLogger(printerOrStdout(p), cfg.Debug, cfg.Debug)
}

func loggerOption(cfg config.Config, p logger.Printer) docshift.OptionFunc {
	if cfg.NoColor {
		return docshift.UseLogger(printerOrStdout(p), cfg.Debug, cfg.Debug)
	}

	return docshift.UseColorLogger(printerOrStdout(p), cfg.Debug, cfg.Debug)
}

func createMigrator(
	cfg config.Config,
	registry *migration.Registry,
	p logger.Printer,
) (*docshift.Migrator, docshift.CloserFunc, error) {
	return createMigratorFrom(schemeOf(cfg.DatabaseURL), factories, cfg, registry, p)
}

func createMigratorFrom(
	scheme string,
	factoryMap handleFactoryMap,
	cfg config.Config,
	registry *migration.Registry,
	p logger.Printer,
) (*docshift.Migrator, docshift.CloserFunc, error) {
	factory, ok := factoryMap[scheme]
	if !ok {
		return nil, nil, &migration.ValidationError{Err: errors.Wrapf(ErrUnknownScheme, "[%s]", cfg.DatabaseURL)}
	}

	useHandle, release, err := factory(cfg)
	if err != nil {
		return nil, nil, &migration.ConnectionError{Err: err}
	}

	m, closer, err := docshift.NewMigrator(
		loggerOption(cfg, p),
		useHandle,
		docshift.UseLocalFolderSource(
			cfg.MigrationsDirectory,
			docshift.WithRelativeTo(cfg.RelativeTo),
			docshift.WithRegistry(registry),
		),
		docshift.WithMigrationsTable(cfg.MigrationsTable),
		docshift.WithReadinessWait(cfg.WaitTimeout),
	)
	if err != nil {
		if releaseErr := release(); releaseErr != nil {
			createLogger(cfg, p).Error(releaseErr)
		}

		return nil, nil, err
	}

	return m, closer, nil
}
