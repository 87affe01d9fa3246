package sources

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/alex-user-go/nearby/internal/errors"
)

// Source is a named location serving a JSON hotel listing.
type Source struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Registry maps source names to locations and tracks the active one.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
	active  string
}

// numericKey matches keys a form decoder would have produced from a plain list
// rather than a name => URL map.
var numericKey = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?\s*$`)

// NewRegistry creates a Registry seeded with defaults. Invalid defaults are
// dropped the same way Seed drops them.
func NewRegistry(defaults map[string]string, active string) *Registry {
	r := &Registry{
		entries: make(map[string]string, len(defaults)),
		active:  active,
	}
	if defaults != nil {
		_, _ = r.Seed(defaults)
	}
	return r
}

// Seed merges operator-supplied candidates (configuration, command-line
// flags) into the registry. Any location ValidLocation accepts is kept,
// including s3 and file URLs.
func (r *Registry) Seed(candidates map[string]string) ([]string, error) {
	return r.merge(candidates, ValidLocation)
}

// Register merges caller-supplied candidates into the registry, overwriting
// entries with the same name. Entries with an empty or numeric name, or a
// location that is not an http or https URL, are skipped. It returns the
// accepted names, sorted.
func (r *Registry) Register(candidates map[string]string) ([]string, error) {
	return r.merge(candidates, RemoteLocation)
}

func (r *Registry) merge(candidates map[string]string, valid func(string) bool) ([]string, error) {
	if candidates == nil {
		return nil, apperrors.Required("Sources list")
	}

	accepted := make([]string, 0, len(candidates))
	r.mu.Lock()
	for name, location := range candidates {
		if !validName(name) || !valid(location) {
			continue
		}
		r.entries[name] = location
		accepted = append(accepted, name)
	}
	r.mu.Unlock()

	sort.Strings(accepted)
	return accepted, nil
}

// Select makes name the active source if it is registered. Unknown names
// leave the selection unchanged.
func (r *Registry) Select(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return false
	}
	r.active = name
	return true
}

// Active returns the name of the active source.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ActiveLocation returns the location of the active source.
func (r *Registry) ActiveLocation() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	location, ok := r.entries[r.active]
	if !ok {
		return "", apperrors.NoSource(r.active)
	}
	return location, nil
}

// Sources returns all registered sources sorted by name.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.entries))
	for name, location := range r.entries {
		out = append(out, Source{Name: name, Location: location})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Clone returns an independent copy. Changes to the copy never reach r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make(map[string]string, len(r.entries))
	for name, location := range r.entries {
		entries[name] = location
	}
	return &Registry{entries: entries, active: r.active}
}

func validName(name string) bool {
	return strings.TrimSpace(name) != "" && !numericKey.MatchString(name)
}

// ValidLocation reports whether location is an absolute URL with a host.
// file URLs need a path instead.
func ValidLocation(location string) bool {
	if location == "" {
		return false
	}
	u, err := url.Parse(location)
	if err != nil || !u.IsAbs() {
		return false
	}
	if u.Scheme == schemeFile {
		return u.Path != ""
	}
	return u.Host != ""
}

// RemoteLocation reports whether location is an http or https URL with a
// host.
func RemoteLocation(location string) bool {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == schemeHTTP || scheme == schemeHTTPS
}
