// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package juju

import (
	"context"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/knkski/juju-helpers/internal/run"
)

// ModelDetail is the slice of `juju show-model` the kubectl plugin
// needs to locate the backing cluster.
type ModelDetail struct {
	Name       string `yaml:"name"`
	ShortName  string `yaml:"short-name"`
	Type       string `yaml:"type"`
	Cloud      string `yaml:"cloud"`
	Credential struct {
		Name  string `yaml:"name"`
		Owner string `yaml:"owner"`
	} `yaml:"credential"`
}

// ShowModel fetches details for the named model, or the current model
// when name is empty.
func ShowModel(ctx context.Context, runner run.Runner, name string) (*ModelDetail, error) {
	args := []string{"show-model", "--format", "yaml"}
	if name != "" {
		args = []string{"show-model", name, "--format", "yaml"}
	}
	out, err := runner.Output(ctx, "juju", args...)
	if err != nil {
		return nil, errors.Annotate(err, "fetching model details")
	}

	// The document is keyed by model name.
	var doc map[string]*ModelDetail
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, errors.Annotate(err, "parsing model details")
	}
	for _, detail := range doc {
		return detail, nil
	}
	return nil, errors.NotFoundf("model details")
}

// CloudDetail is the slice of `juju show-cloud` needed to build a
// kubeconfig for a Kubernetes cloud.
type CloudDetail struct {
	Type           string   `yaml:"type"`
	Endpoint       string   `yaml:"endpoint"`
	CACertificates []string `yaml:"ca-certificates"`
}

// IsKubernetes reports whether the cloud is backed by a Kubernetes
// cluster.
func (c *CloudDetail) IsKubernetes() bool {
	return c.Type == "k8s" || c.Type == "kubernetes"
}

// ShowCloud fetches details for the named cloud.
func ShowCloud(ctx context.Context, runner run.Runner, name string) (*CloudDetail, error) {
	out, err := runner.Output(ctx, "juju", "show-cloud", name, "--format", "yaml")
	if err != nil {
		return nil, errors.Annotatef(err, "fetching cloud %q", name)
	}
	var detail CloudDetail
	if err := yaml.Unmarshal(out, &detail); err != nil {
		return nil, errors.Annotatef(err, "parsing cloud %q", name)
	}
	return &detail, nil
}

// Credential holds one cloud credential's auth type and attributes,
// secrets included.
type Credential struct {
	AuthType   string
	Attributes map[string]string
}

// CloudCredential fetches the named credential for a cloud, including
// its secrets. An empty credName selects the only credential defined
// for the cloud, erroring when that is ambiguous.
func CloudCredential(ctx context.Context, runner run.Runner, cloudName, credName string) (*Credential, error) {
	out, err := runner.Output(ctx, "juju", "credentials", cloudName, "--format", "yaml", "--show-secrets")
	if err != nil {
		return nil, errors.Annotatef(err, "fetching credentials for cloud %q", cloudName)
	}

	// Top level is the credential store section (client-credentials
	// on newer clients, local-credentials historically), then cloud
	// name, then credential name. Cloud-level scalar entries such as
	// default-credential are skipped.
	var doc map[string]map[string]map[string]interface{}
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, errors.Annotatef(err, "parsing credentials for cloud %q", cloudName)
	}
	for _, clouds := range doc {
		cloud, ok := clouds[cloudName]
		if !ok {
			continue
		}
		creds := make(map[string]*Credential)
		for name, value := range cloud {
			raw, ok := value.(map[interface{}]interface{})
			if !ok {
				continue
			}
			cred, err := parseCredential(raw)
			if err != nil {
				return nil, errors.Annotatef(err, "credential %q for cloud %q", name, cloudName)
			}
			creds[name] = cred
		}
		if credName == "" {
			if len(creds) > 1 {
				return nil, errors.Errorf("multiple credentials for cloud %q, specify one", cloudName)
			}
			for name := range creds {
				credName = name
			}
		}
		cred, ok := creds[credName]
		if !ok {
			return nil, errors.NotFoundf("credential %q for cloud %q", credName, cloudName)
		}
		return cred, nil
	}
	return nil, errors.NotFoundf("credentials for cloud %q", cloudName)
}

func parseCredential(raw map[interface{}]interface{}) (*Credential, error) {
	cred := &Credential{Attributes: make(map[string]string)}
	for rawKey, rawValue := range raw {
		key, ok := rawKey.(string)
		if !ok {
			continue
		}
		value, ok := rawValue.(string)
		if !ok {
			continue
		}
		if key == "auth-type" {
			cred.AuthType = value
			continue
		}
		cred.Attributes[key] = value
	}
	if cred.AuthType == "" {
		return nil, errors.NotValidf("credential with no auth-type")
	}
	return cred, nil
}
