package source

import (
	"bytes"
	"context"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/denismitr/docshift/migration"
	"github.com/pkg/errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

const DefaultMigrationsFolder = "./migrations"

const goExtension = "go"

var ErrMigrationAlreadyExists = errors.New("migration already exists")

var packageNameRegexp = regexp.MustCompile(`[^a-z0-9_]`)

var goTemplate = template.Must(template.New("migration").Parse(`package {{ .Package }}

import (
	"context"

	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/migration"
)

func init() {
	migration.Register(up{{ .Version }}, down{{ .Version }})
}

func up{{ .Version }}(ctx context.Context, db docdb.Handle) error {
	return nil
}

func down{{ .Version }}(ctx context.Context, db docdb.Handle) error {
	return nil
}
`))

// LocalFolderSource discovers migrations by filename in a local folder and
// resolves their code from a registry the folder's files registered into.
type LocalFolderSource struct {
	folder   string
	registry *migration.Registry
	lg       logger.Logger
}

var _ Source = (*LocalFolderSource)(nil)

func NewLocalFolderSource(
	folder string,
	relativeTo string,
	r *migration.Registry,
	lg logger.Logger,
) *LocalFolderSource {
	if r == nil {
		r = migration.DefaultRegistry
	}

	if lg == nil {
		lg = logger.NullLogger{}
	}

	return &LocalFolderSource{
		folder:   ResolveFolder(folder, relativeTo),
		registry: r,
		lg:       lg,
	}
}

// ResolveFolder joins a relative folder onto relativeTo, absolute folders are kept
func ResolveFolder(folder, relativeTo string) string {
	if folder == "" {
		folder = DefaultMigrationsFolder
	}

	if filepath.IsAbs(folder) || relativeTo == "" {
		return filepath.Clean(folder)
	}

	return filepath.Join(relativeTo, folder)
}

func (lfs *LocalFolderSource) Folder() string {
	return lfs.folder
}

func (lfs *LocalFolderSource) Discover(ctx context.Context) ([]migration.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, &migration.DiscoveryError{Err: err}
	}

	entries, err := os.ReadDir(lfs.folder)
	if err != nil {
		return nil, &migration.DiscoveryError{
			Err: errors.Wrapf(err, "could not read migrations folder %s", lfs.folder),
		}
	}

	var result []migration.Unit
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		u, err := migration.ParseFilename(entry.Name())
		if err != nil {
			if errors.Is(err, migration.ErrNotAMigrationFile) {
				lfs.lg.Debugf("skipping %s", entry.Name())
				continue
			}

			return nil, err
		}

		result = append(result, u)
	}

	migration.SortUnits(result)

	return result, nil
}

func (lfs *LocalFolderSource) Load(ctx context.Context, u migration.Unit) (*migration.Migration, error) {
	return load(ctx, lfs.registry, u)
}

func (lfs *LocalFolderSource) IsValid() bool {
	info, err := os.Stat(lfs.folder)
	if err != nil {
		return false
	}

	return info.IsDir()
}

// AlreadyExists reports whether a migration with the same timestamp or name is in the folder
func (lfs *LocalFolderSource) AlreadyExists(ts time.Time, name string) bool {
	units, err := lfs.Discover(context.Background())
	if err != nil {
		return false
	}

	slug := migration.Slug(name)
	for _, u := range units {
		if u.Timestamp.Equal(ts.UTC().Truncate(time.Second)) || u.Name == slug {
			return true
		}
	}

	return false
}

// Create writes a new Go migration file registering empty up and down functions
func (lfs *LocalFolderSource) Create(ts time.Time, name string) (migration.Unit, error) {
	if migration.Slug(name) == "" {
		return migration.Unit{}, errors.New("migration name must not be empty")
	}

	if lfs.AlreadyExists(ts, name) {
		return migration.Unit{}, errors.Wrapf(ErrMigrationAlreadyExists, "[%s]", name)
	}

	filename := migration.FilenameFor(ts, name, goExtension)
	u, err := migration.ParseFilename(filename)
	if err != nil {
		return migration.Unit{}, err
	}

	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, struct {
		Package string
		Version string
	}{
		Package: packageName(lfs.folder),
		Version: u.Version(),
	}); err != nil {
		return migration.Unit{}, errors.Wrap(err, "could not render migration template")
	}

	path := filepath.Join(lfs.folder, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return migration.Unit{}, errors.Wrapf(err, "could not create file [%s]", path)
	}

	lfs.lg.Successf("created migration %s", path)

	return u, nil
}

func packageName(folder string) string {
	abs, err := filepath.Abs(folder)
	if err != nil {
		abs = folder
	}

	name := packageNameRegexp.ReplaceAllString(strings.ToLower(filepath.Base(abs)), "_")
	if name == "" || name == "_" || (name[0] >= '0' && name[0] <= '9') {
		return "migrations"
	}

	return name
}
