// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package bundle models juju deployment bundles the way the
// juju-bundle plugin works with them: a bundle.yaml on disk, the
// subset of its applications selected on the command line, and the
// relations connecting them.
package bundle

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"gopkg.in/yaml.v2"
)

// Application is one application entry of a bundle.yaml. Charm may be
// a store URL or a local path; Source points at a charm source tree
// the plugin can build in its place.
type Application struct {
	Charm       string                 `yaml:"charm,omitempty"`
	Source      string                 `yaml:"source,omitempty"`
	Channel     string                 `yaml:"channel,omitempty"`
	Series      string                 `yaml:"series,omitempty"`
	NumUnits    int                    `yaml:"num_units,omitempty"`
	Scale       int                    `yaml:"scale,omitempty"`
	Expose      bool                   `yaml:"expose,omitempty"`
	Trust       bool                   `yaml:"trust,omitempty"`
	Constraints string                 `yaml:"constraints,omitempty"`
	Options     map[string]interface{} `yaml:"options,omitempty"`
	Annotations map[string]string      `yaml:"annotations,omitempty"`
	Resources   map[string]string      `yaml:"resources,omitempty"`
	Storage     map[string]string      `yaml:"storage,omitempty"`
	Bindings    map[string]string      `yaml:"bindings,omitempty"`
	To          []string               `yaml:"to,omitempty"`

	// Extra round-trips application fields the plugin doesn't
	// interpret, so rewriting a bundle never drops them.
	Extra map[string]interface{} `yaml:",inline"`
}

// Copy returns a deep-enough copy for the deploy path: map fields the
// plugin mutates are duplicated, everything else is shared.
func (a *Application) Copy() *Application {
	copied := *a
	if a.Resources != nil {
		copied.Resources = make(map[string]string, len(a.Resources))
		for k, v := range a.Resources {
			copied.Resources[k] = v
		}
	}
	return &copied
}

// Data is the parsed representation of a bundle.yaml document.
type Data struct {
	Name         string                  `yaml:"name,omitempty"`
	Description  string                  `yaml:"description,omitempty"`
	Series       string                  `yaml:"series,omitempty"`
	Type         string                  `yaml:"bundle,omitempty"`
	Applications map[string]*Application `yaml:"applications"`
	Relations    [][]string              `yaml:"relations,omitempty"`
	Machines     map[string]interface{}  `yaml:"machines,omitempty"`

	Extra map[string]interface{} `yaml:",inline"`
}

// Bundle couples parsed bundle data with the path it came from, which
// relative charm sources resolve against.
type Bundle struct {
	Data

	// Path is where the bundle was read from; empty for bundles
	// fetched from the charm store.
	Path string
}

// Read loads a bundle from path, which may name a bundle.yaml or a
// directory containing one.
func Read(path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("bundle %q", path)
		}
		return nil, errors.Annotatef(err, "stat failed for %q", path)
	}
	if info.IsDir() {
		path = filepath.Join(path, "bundle.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("bundle %q", path)
		}
		return nil, errors.Annotatef(err, "reading bundle at %q", path)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "bundle at %q", path)
	}
	b.Path = path
	return b, nil
}

// Parse unmarshals bundle.yaml content.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b.Data); err != nil {
		return nil, errors.NewNotValid(err, "cannot unmarshal bundle contents")
	}
	if len(b.Applications) == 0 {
		return nil, errors.NotValidf("bundle with no applications")
	}
	for name := range b.Applications {
		if !names.IsValidApplication(name) {
			return nil, errors.NotValidf("application name %q", name)
		}
	}
	for _, relation := range b.Relations {
		if len(relation) != 2 {
			return nil, errors.NotValidf("relation %v", relation)
		}
		for _, endpoint := range relation {
			if endpointApplication(endpoint) == "" {
				return nil, errors.NotValidf("relation endpoint %q", endpoint)
			}
		}
	}
	return &b, nil
}

// Write serializes the bundle to path.
func (b *Bundle) Write(path string) error {
	data, err := yaml.Marshal(b.Data)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(os.WriteFile(path, data, 0644), "writing bundle to %q", path)
}

// WriteTemp serializes the bundle to a fresh temporary file and
// returns its path. The caller removes it when done.
func (b *Bundle) WriteTemp() (string, error) {
	f, err := os.CreateTemp("", "bundle-*.yaml")
	if err != nil {
		return "", errors.Trace(err)
	}
	name := f.Name()
	_ = f.Close()
	if err := b.Write(name); err != nil {
		_ = os.Remove(name)
		return "", errors.Trace(err)
	}
	return name, nil
}

// ApplicationSubset returns the named applications, or all of them
// when names is empty. Unknown names are an error rather than being
// silently ignored.
func (b *Bundle) ApplicationSubset(appNames []string) (map[string]*Application, error) {
	if len(appNames) == 0 {
		return b.Applications, nil
	}
	subset := make(map[string]*Application, len(appNames))
	for _, name := range appNames {
		app, ok := b.Applications[name]
		if !ok {
			return nil, errors.NotFoundf("application %q in bundle", name)
		}
		subset[name] = app
	}
	return subset, nil
}

// PruneRelations drops every relation with an endpoint outside the
// given applications. Endpoints are compared by application name,
// ignoring any ":interface" qualifier.
func (b *Bundle) PruneRelations(applications map[string]*Application) {
	kept := set.NewStrings()
	for name := range applications {
		kept.Add(name)
	}

	pruned := make([][]string, 0, len(b.Relations))
	for _, relation := range b.Relations {
		endpoints := set.NewStrings()
		for _, endpoint := range relation {
			endpoints.Add(endpointApplication(endpoint))
		}
		if endpoints.Difference(kept).IsEmpty() {
			pruned = append(pruned, relation)
		}
	}
	b.Relations = pruned
}

// SortedNames returns the application names in lexical order, for
// stable iteration.
func SortedNames(applications map[string]*Application) []string {
	sorted := make([]string, 0, len(applications))
	for name := range applications {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return sorted
}

// endpointApplication strips the interface qualifier from a relation
// endpoint, e.g. "wordpress:db" => "wordpress".
func endpointApplication(endpoint string) string {
	if i := strings.Index(endpoint, ":"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
