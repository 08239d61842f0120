// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package paths resolves the well-known directories and environment
// variables used by the juju-helpers plugins.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// CharmBuildDirEnvKey overrides where built charms are placed.
	CharmBuildDirEnvKey = "CHARM_BUILD_DIR"

	// CharmSourceDirEnvKey overrides where non-relative charm
	// sources are looked up.
	CharmSourceDirEnvKey = "CHARM_SOURCE_DIR"

	// JujuRepositoryEnvKey is honoured for backwards compatibility
	// with the classic charm tooling.
	JujuRepositoryEnvKey = "JUJU_REPOSITORY"

	// JujuLoggingConfigEnvKey configures the default loggo levels,
	// the same way the juju CLI itself does.
	JujuLoggingConfigEnvKey = "JUJU_LOGGING_CONFIG"
)

// CharmBuildDir returns the directory built charms are written to.
// $CHARM_BUILD_DIR wins, then $JUJU_REPOSITORY/builds, then a
// charm-builds directory under the system temp dir.
func CharmBuildDir() string {
	if dir := os.Getenv(CharmBuildDirEnvKey); dir != "" {
		return dir
	}
	if repo := os.Getenv(JujuRepositoryEnvKey); repo != "" {
		return filepath.Join(repo, "builds")
	}
	return filepath.Join(os.TempDir(), "charm-builds")
}

// CharmSourceDir returns the directory that bundle `source:` values
// which are not relative paths are resolved against.
func CharmSourceDir() string {
	if dir := os.Getenv(CharmSourceDirEnvKey); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "charms"
	}
	return filepath.Join(home, "charms")
}
