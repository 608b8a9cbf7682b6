package schedule

import (
	"context"
	"github.com/denismitr/docshift/internal/ledger"
	"github.com/denismitr/docshift/internal/source"
	"github.com/denismitr/docshift/migration"
)

// Plan is the ordered list of loaded migrations to run in one direction
type Plan struct {
	Direction  migration.Direction
	Latest     migration.Unit
	Migrations migration.Migrations
}

func (p *Plan) Empty() bool {
	return len(p.Migrations) == 0
}

// ForUp resolves every discovered migration newer than the latest ledger entry,
// oldest first.
func ForUp(ctx context.Context, store *ledger.Store, src source.Source) (*Plan, error) {
	if err := store.Ensure(ctx); err != nil {
		return nil, err
	}

	entries, err := store.ReadDesc(ctx)
	if err != nil {
		return nil, err
	}

	latest := ledger.Latest(entries)

	units, err := src.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var pending []migration.Unit
	for i := range units {
		if units[i].Timestamp.After(latest) {
			pending = append(pending, units[i])
		}
	}

	migration.SortUnits(pending)

	migrations, err := source.LoadAll(ctx, src, pending)
	if err != nil {
		return nil, err
	}

	p := &Plan{Direction: migration.Up, Migrations: migrations}
	if len(entries) > 0 {
		p.Latest = entries[0].Unit()
	}

	return p, nil
}

// ForDown resolves every applied migration, most recently applied first
func ForDown(ctx context.Context, store *ledger.Store, src source.Source) (*Plan, error) {
	if err := store.Ensure(ctx); err != nil {
		return nil, err
	}

	entries, err := store.ReadDesc(ctx)
	if err != nil {
		return nil, err
	}

	units := make([]migration.Unit, 0, len(entries))
	for i := range entries {
		units = append(units, entries[i].Unit())
	}

	migrations, err := source.LoadAll(ctx, src, units)
	if err != nil {
		return nil, err
	}

	p := &Plan{Direction: migration.Down, Migrations: migrations}
	if len(entries) > 0 {
		p.Latest = entries[0].Unit()
	}

	return p, nil
}

// For dispatches on direction
func For(ctx context.Context, dir migration.Direction, store *ledger.Store, src source.Source) (*Plan, error) {
	if dir == migration.Down {
		return ForDown(ctx, store, src)
	}

	return ForUp(ctx, store, src)
}
