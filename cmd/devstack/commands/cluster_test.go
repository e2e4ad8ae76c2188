package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
)

func TestResolveMountSpecFromArgs(t *testing.T) {
	source, target, err := resolveMountSpec(devconfig.DefaultSettings(), []string{"/srv/data", "/mnt/data"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", source)
	assert.Equal(t, "/mnt/data", target)
}

func TestResolveMountSpecFromSettings(t *testing.T) {
	settings := devconfig.DefaultSettings()
	settings.MountSource = "/srv/dags"
	settings.MountTarget = "/mnt/dags"

	source, target, err := resolveMountSpec(settings, nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/dags", source)
	assert.Equal(t, "/mnt/dags", target)
}

func TestResolveMountSpecUnconfigured(t *testing.T) {
	_, _, err := resolveMountSpec(devconfig.DefaultSettings(), nil)
	assert.Error(t, err)
}

func TestResolveMountSpecRejectsSingleArg(t *testing.T) {
	_, _, err := resolveMountSpec(devconfig.DefaultSettings(), []string{"/srv/data"})
	assert.Error(t, err)
}
