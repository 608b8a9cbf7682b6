package migration

import (
	"github.com/pkg/errors"
	"path/filepath"
	"runtime"
	"sync"
)

// Registry maps migration filenames to their code. Migration files register
// themselves from init(), so the binary carries the code the ledger refers to.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]Code
	units map[string]Unit
}

func NewRegistry() *Registry {
	return &Registry{
		codes: make(map[string]Code),
		units: make(map[string]Unit),
	}
}

var DefaultRegistry = NewRegistry()

// Register adds up and down functions to the default registry under the
// filename of the calling source file, e.g. 20210101120000-add-users.go
func Register(up, down Func) {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		panic("docshift: could not determine migration filename")
	}

	if err := DefaultRegistry.Add(filepath.Base(file), Funcs{UpFn: up, DownFn: down}); err != nil {
		panic(err)
	}
}

// RegisterFile adds up and down functions to the default registry under an explicit filename
func RegisterFile(filename string, up, down Func) error {
	return DefaultRegistry.Add(filename, Funcs{UpFn: up, DownFn: down})
}

func (r *Registry) Add(filename string, code Code) error {
	u, err := ParseFilename(filename)
	if err != nil {
		return err
	}

	if err := ValidateCode(code); err != nil {
		return errors.Wrapf(err, "[%s]", u.Filename)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[u.Filename]; ok {
		return errors.Wrapf(ErrDuplicateFile, "[%s]", u.Filename)
	}

	r.codes[u.Filename] = code
	r.units[u.Filename] = u

	return nil
}

func (r *Registry) Lookup(filename string) (Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.codes[filepath.Base(filename)]
	if !ok {
		return nil, errors.Wrapf(ErrNotRegistered, "[%s]", filename)
	}

	return code, nil
}

// Units lists registered units ascending by timestamp
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	result := make([]Unit, 0, len(r.units))
	for _, u := range r.units {
		result = append(result, u)
	}
	r.mu.RUnlock()

	SortUnitsByFilename(result)
	SortUnits(result)

	return result
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// ValidateCode rejects code that cannot run in both directions
func ValidateCode(code Code) error {
	if code == nil {
		return ErrMissingFunc
	}

	if f, ok := code.(Funcs); ok && (f.UpFn == nil || f.DownFn == nil) {
		return ErrMissingFunc
	}

	return nil
}
