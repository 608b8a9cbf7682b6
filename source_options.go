package docshift

import (
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/internal/source"
	"github.com/denismitr/docshift/migration"
)

type (
	sourceConfig struct {
		relativeTo string
		registry   *migration.Registry
	}

	SourceConfigurator func(sc *sourceConfig)
)

// UseLocalFolderSource discovers migrations by filename in folder. Their code
// is looked up in the default registry unless WithRegistry says otherwise.
func UseLocalFolderSource(folder string, configurators ...SourceConfigurator) OptionFunc {
	var sc sourceConfig
	sc.registry = migration.DefaultRegistry
	for _, c := range configurators {
		c(&sc)
	}

	return func(m *Migrator) error {
		m.newSource = localFolderSource(folder, sc)
		return nil
	}
}

func localFolderSource(folder string, sc sourceConfig) sourceFactory {
	return func(lg logger.Logger) (source.Source, string) {
		lfs := source.NewLocalFolderSource(folder, sc.relativeTo, sc.registry, lg)
		return lfs, lfs.Folder()
	}
}

// UseRegistrySource takes migrations straight from a registry,
// no folder is read.
func UseRegistrySource(r *migration.Registry) OptionFunc {
	return func(m *Migrator) error {
		m.newSource = func(_ logger.Logger) (source.Source, string) {
			return source.NewRegistrySource(r), ""
		}
		return nil
	}
}

func WithRelativeTo(dir string) SourceConfigurator {
	return func(sc *sourceConfig) {
		sc.relativeTo = dir
	}
}

func WithRegistry(r *migration.Registry) SourceConfigurator {
	return func(sc *sourceConfig) {
		if r != nil {
			sc.registry = r
		}
	}
}
