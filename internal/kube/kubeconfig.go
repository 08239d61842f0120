// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package kube assembles a kubeconfig for the Kubernetes cluster
// backing a juju model, from the cloud and credential details the
// juju client holds.
package kube

import (
	"os"

	"github.com/juju/errors"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/knkski/juju-helpers/internal/juju"
)

// Config builds a kubeconfig targeting the given Kubernetes cloud,
// authenticated with the given juju credential. contextName doubles
// as the cluster and user entry name.
func Config(contextName string, cloud *juju.CloudDetail, cred *juju.Credential) (*clientcmdapi.Config, error) {
	if !cloud.IsKubernetes() {
		return nil, errors.NotSupportedf("building a kubeconfig for cloud type %q", cloud.Type)
	}
	if cloud.Endpoint == "" {
		return nil, errors.NotValidf("kubernetes cloud with no endpoint")
	}

	cluster := clientcmdapi.NewCluster()
	cluster.Server = cloud.Endpoint
	if len(cloud.CACertificates) > 0 {
		cluster.CertificateAuthorityData = []byte(cloud.CACertificates[0])
	}

	authInfo, err := userForCredential(cred)
	if err != nil {
		return nil, errors.Trace(err)
	}

	config := clientcmdapi.NewConfig()
	config.Clusters[contextName] = cluster
	config.AuthInfos[contextName] = authInfo
	config.Contexts[contextName] = &clientcmdapi.Context{
		Cluster:  contextName,
		AuthInfo: contextName,
	}
	config.CurrentContext = contextName
	return config, nil
}

// userForCredential maps a juju cloud credential onto kubeconfig user
// auth. The attribute names are the ones juju stores for k8s clouds.
func userForCredential(cred *juju.Credential) (*clientcmdapi.AuthInfo, error) {
	authInfo := clientcmdapi.NewAuthInfo()
	attrs := cred.Attributes

	haveAuth := false
	if token := attrs["Token"]; token != "" {
		authInfo.Token = token
		haveAuth = true
	}
	if cert, key := attrs["ClientCertificateData"], attrs["ClientKeyData"]; cert != "" && key != "" {
		authInfo.ClientCertificateData = []byte(cert)
		authInfo.ClientKeyData = []byte(key)
		haveAuth = true
	}
	if user, pass := attrs["username"], attrs["password"]; user != "" && pass != "" {
		authInfo.Username = user
		authInfo.Password = pass
		haveAuth = true
	}
	if !haveAuth {
		return nil, errors.NotSupportedf("credential auth-type %q", cred.AuthType)
	}
	return authInfo, nil
}

// WriteTemp writes the kubeconfig to a fresh temporary file and
// returns its path. The caller removes it when done.
func WriteTemp(config *clientcmdapi.Config) (string, error) {
	f, err := os.CreateTemp("", "juju-kubectl-*.kubeconfig")
	if err != nil {
		return "", errors.Trace(err)
	}
	path := f.Name()
	_ = f.Close()
	if err := clientcmd.WriteToFile(*config, path); err != nil {
		_ = os.Remove(path)
		return "", errors.Annotate(err, "writing kubeconfig")
	}
	return path, nil
}
