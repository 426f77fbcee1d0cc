// Package endpoint resolves logical resource actions into request paths for a backend profile.
package endpoint

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// Standard actions every entity registers.
const (
	List   = "list"
	Get    = "get"
	Create = "create"
	Update = "update"
	Delete = "delete"
)

// Template produces a request path from positional arguments (ids).
type Template interface {
	Expand(args ...string) (string, error)
}

// Path is a static template. Arguments are ignored.
type Path string

func (p Path) Expand(...string) (string, error) { return string(p), nil }

// PathFunc builds a path from `N` arguments.
type PathFunc struct {
	N  int
	Fn func(args ...string) string
}

func (p PathFunc) Expand(args ...string) (string, error) {
	if len(args) < p.N {
		return "", fmt.Errorf("expected %d argument(s), got %d", p.N, len(args))
	}
	for _, a := range args[:p.N] {
		if strings.TrimSpace(a) == "" {
			return "", fmt.Errorf("empty path argument")
		}
	}
	return p.Fn(args...), nil
}

// ByID returns a template `prefix/{id}suffix`.
func ByID(prefix, suffix string) PathFunc {
	return PathFunc{N: 1, Fn: func(args ...string) string { return prefix + "/" + url.PathEscape(args[0]) + suffix }}
}

type (
	Actions  map[string]Template
	Profile  map[string]Actions // resource -> actions
	Registry map[string]Profile // profile name -> resources
)

// Resolver resolves paths against exactly one profile, chosen at construction.
type Resolver struct {
	name    string
	profile Profile
}

// NewResolver picks `profile` from `reg`.
func NewResolver(reg Registry, profile string) (*Resolver, error) {
	p, ok := reg[profile]
	if !ok {
		return nil, &core.ConfigurationError{Profile: profile, Msg: "unknown backend profile"}
	}
	return &Resolver{name: profile, profile: p}, nil
}

// Profile returns the name of the active profile.
func (r *Resolver) Profile() string { return r.name }

// Resolve returns the path of `resource.action`, expanding its template with `args`.
func (r *Resolver) Resolve(resource, action string, args ...string) (string, error) {
	actions, ok := r.profile[resource]
	if !ok {
		return "", &core.ConfigurationError{Profile: r.name, Resource: resource, Action: action, Msg: "unknown resource"}
	}
	tmpl, ok := actions[action]
	if !ok {
		return "", &core.ConfigurationError{Profile: r.name, Resource: resource, Action: action}
	}
	path, err := tmpl.Expand(args...)
	if err != nil {
		return "", &core.ConfigurationError{Profile: r.name, Resource: resource, Action: action, Msg: err.Error()}
	}
	return path, nil
}

// MustResolve panics on a ConfigurationError. Meant for static wiring only.
func (r *Resolver) MustResolve(resource, action string, args ...string) string {
	path, err := r.Resolve(resource, action, args...)
	if err != nil {
		panic(err)
	}
	return path
}

// Has reports whether `resource.action` is registered.
func (r *Resolver) Has(resource, action string) bool {
	_, ok := r.profile[resource][action]
	return ok
}

// Resources lists the registered resources, sorted.
func (r *Resolver) Resources() []string {
	names := make([]string, 0, len(r.profile))
	for name := range r.profile {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Actions lists the actions registered for resource, sorted.
func (r *Resolver) Actions(resource string) []string {
	actions := make([]string, 0, len(r.profile[resource]))
	for name := range r.profile[resource] {
		actions = append(actions, name)
	}
	sort.Strings(actions)
	return actions
}
