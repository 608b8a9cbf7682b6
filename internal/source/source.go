package source

import (
	"context"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
)

// Source discovers migration units and resolves their code
type Source interface {
	Discover(ctx context.Context) ([]migration.Unit, error)
	Load(ctx context.Context, u migration.Unit) (*migration.Migration, error)
}

// RegistrySource serves migrations compiled into the binary, no folder is read
type RegistrySource struct {
	registry *migration.Registry
}

var _ Source = (*RegistrySource)(nil)

func NewRegistrySource(r *migration.Registry) *RegistrySource {
	if r == nil {
		r = migration.DefaultRegistry
	}

	return &RegistrySource{registry: r}
}

func (rs *RegistrySource) Discover(ctx context.Context) ([]migration.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, &migration.DiscoveryError{Err: err}
	}

	return rs.registry.Units(), nil
}

func (rs *RegistrySource) Load(ctx context.Context, u migration.Unit) (*migration.Migration, error) {
	return load(ctx, rs.registry, u)
}

func load(ctx context.Context, r *migration.Registry, u migration.Unit) (*migration.Migration, error) {
	if err := ctx.Err(); err != nil {
		return nil, &migration.LoadError{Filename: u.Filename, Err: err}
	}

	code, err := r.Lookup(u.Filename)
	if err != nil {
		return nil, &migration.LoadError{Filename: u.Filename, Err: err}
	}

	if err := migration.ValidateCode(code); err != nil {
		return nil, &migration.LoadError{Filename: u.Filename, Err: err}
	}

	return &migration.Migration{Unit: u, Code: code}, nil
}

// LoadAll resolves code for every unit keeping their order
func LoadAll(ctx context.Context, s Source, units []migration.Unit) (migration.Migrations, error) {
	result := make(migration.Migrations, 0, len(units))

	for i := range units {
		m, err := s.Load(ctx, units[i])
		if err != nil {
			return nil, errors.WithMessagef(err, "loading %d of %d", i+1, len(units))
		}

		result = append(result, m)
	}

	return result, nil
}
