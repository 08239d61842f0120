// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v2"
)

// Resource types a charm may declare.
const (
	ResourceTypeFile     = "file"
	ResourceTypeOCIImage = "oci-image"
)

// ResourceMeta describes one entry of the resources section of a
// charm's metadata.yaml.
type ResourceMeta struct {
	Name        string
	Type        string
	Path        string
	Description string

	// UpstreamSource is the default value a bundle deploy passes to
	// juju for this resource when the bundle itself does not pin one.
	UpstreamSource string
}

// Validate checks the resource metadata for sanity.
func (m ResourceMeta) Validate() error {
	if m.Name == "" {
		return errors.NotValidf("resource missing name")
	}
	if m.Type != ResourceTypeFile && m.Type != ResourceTypeOCIImage {
		return errors.NotValidf("resource %q type %q", m.Name, m.Type)
	}
	return nil
}

// Metadata is the subset of a charm's metadata.yaml the bundle plugin
// needs: identity plus declared resources.
type Metadata struct {
	Name        string
	Summary     string
	Description string
	Resources   map[string]ResourceMeta
}

var resourceSchema = schema.FieldMap(
	schema.Fields{
		"type":            schema.String(),
		"filename":        schema.String(),
		"description":     schema.String(),
		"upstream-source": schema.String(),
	},
	schema.Defaults{
		"type":            ResourceTypeFile,
		"filename":        "",
		"description":     "",
		"upstream-source": "",
	},
)

// ReadMetadata parses the content of a metadata.yaml file. Fields the
// plugin has no use for are ignored rather than rejected, so charms
// with rich metadata still load.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw struct {
		Name        string                 `yaml:"name"`
		Summary     string                 `yaml:"summary"`
		Description string                 `yaml:"description"`
		Resources   map[string]interface{} `yaml:"resources"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing metadata")
	}
	if raw.Name == "" {
		return nil, errors.NotValidf("metadata with no charm name")
	}

	meta := &Metadata{
		Name:        raw.Name,
		Summary:     raw.Summary,
		Description: raw.Description,
	}
	if len(raw.Resources) > 0 {
		meta.Resources = make(map[string]ResourceMeta)
		for name, value := range raw.Resources {
			res, err := parseResourceMeta(name, value)
			if err != nil {
				return nil, errors.Trace(err)
			}
			if err := res.Validate(); err != nil {
				return nil, errors.Trace(err)
			}
			meta.Resources[name] = res
		}
	}
	return meta, nil
}

// parseResourceMeta coerces one resources entry through the resource
// schema, supplying defaults for absent fields.
func parseResourceMeta(name string, value interface{}) (ResourceMeta, error) {
	meta := ResourceMeta{Name: name, Type: ResourceTypeFile}
	if value == nil {
		return meta, nil
	}

	coerced, err := resourceSchema.Coerce(value, []string{"resources", name})
	if err != nil {
		return meta, errors.Annotate(err, fmt.Sprintf("resource %q", name))
	}
	m := coerced.(map[string]interface{})
	meta.Type = m["type"].(string)
	meta.Path = m["filename"].(string)
	meta.Description = m["description"].(string)
	meta.UpstreamSource = m["upstream-source"].(string)
	return meta, nil
}
