package migration

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/pkg/errors"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const TimestampLayout = "20060102150405"

// Epoch precedes any realistic migration timestamp
var Epoch = time.Unix(0, 0).UTC()

var filenameRegexp = regexp.MustCompile(`^(\d{14})-(.+)\.([A-Za-z0-9]+)$`)

type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}

	return "up"
}

type (
	// Unit describes a single migration file
	Unit struct {
		Timestamp time.Time
		Name      string
		Filename  string
	}

	Func func(ctx context.Context, db docdb.Handle) error

	Code interface {
		Up(ctx context.Context, db docdb.Handle) error
		Down(ctx context.Context, db docdb.Handle) error
	}

	// Funcs adapts a pair of functions to Code
	Funcs struct {
		UpFn   Func
		DownFn Func
	}

	Migration struct {
		Unit
		Code Code
	}

	ClockFunc func() time.Time
)

var _ Code = Funcs{}

func (f Funcs) Up(ctx context.Context, db docdb.Handle) error {
	return f.UpFn(ctx, db)
}

func (f Funcs) Down(ctx context.Context, db docdb.Handle) error {
	return f.DownFn(ctx, db)
}

func (u Unit) Version() string {
	return u.Timestamp.UTC().Format(TimestampLayout)
}

func (u Unit) String() string {
	return u.Filename
}

func (m *Migration) Run(ctx context.Context, dir Direction, db docdb.Handle) error {
	if dir == Down {
		return m.Code.Down(ctx, db)
	}

	return m.Code.Up(ctx, db)
}

type Migrations []*Migration

func (m Migrations) Len() int {
	return len(m)
}

func (m Migrations) Less(i, j int) bool {
	return m[i].Timestamp.Before(m[j].Timestamp)
}

func (m Migrations) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func (m Migrations) Units() []Unit {
	result := make([]Unit, 0, len(m))
	for i := range m {
		result = append(result, m[i].Unit)
	}

	return result
}

// SortUnits sorts units ascending by timestamp keeping the relative order of equal ones
func SortUnits(units []Unit) {
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].Timestamp.Before(units[j].Timestamp)
	})
}

func SortUnitsByFilename(units []Unit) {
	sort.Slice(units, func(i, j int) bool {
		return units[i].Filename < units[j].Filename
	})
}

// ParseFilename extracts a unit descriptor from a <YYYYMMDDHHmmss>-<name>.<ext> filename
func ParseFilename(path string) (Unit, error) {
	filename := filepath.Base(path)

	matches := filenameRegexp.FindStringSubmatch(filename)
	if len(matches) != 4 {
		return Unit{}, errors.Wrapf(ErrNotAMigrationFile, "[%s]", filename)
	}

	ts, err := time.ParseInLocation(TimestampLayout, matches[1], time.UTC)
	if err != nil {
		return Unit{}, &DiscoveryError{
			Err: errors.Wrapf(err, "invalid timestamp in migration filename [%s]", filename),
		}
	}

	return Unit{
		Timestamp: ts,
		Name:      matches[2],
		Filename:  filename,
	}, nil
}

// Slug turns a human readable migration name into a filename friendly one
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// FilenameFor builds a migration filename from its timestamp, name and extension
func FilenameFor(ts time.Time, name, ext string) string {
	var b strings.Builder
	b.WriteString(ts.UTC().Format(TimestampLayout))
	b.WriteString("-")
	b.WriteString(Slug(name))
	b.WriteString(".")
	b.WriteString(strings.TrimPrefix(ext, "."))
	return b.String()
}
