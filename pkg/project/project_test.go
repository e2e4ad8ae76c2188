package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitScaffoldsProject(t *testing.T) {
	dir := t.TempDir()

	err := Init(dir, []string{"postgres", "redpanda"}, false)
	require.NoError(t, err)

	envContent, err := os.ReadFile(filepath.Join(dir, EnvFileName))
	require.NoError(t, err)
	assert.Contains(t, string(envContent), "ENABLED_SERVICES=postgres,redpanda")
	assert.Contains(t, string(envContent), "#MINIKUBE_CPUS=4")

	marker, err := ReadMarker(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres", "redpanda"}, marker.Services)
}

func TestInitRejectsUnknownService(t *testing.T) {
	err := Init(t.TempDir(), []string{"postgres", "oracle"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Init(dir, []string{"postgres"}, false))

	err := Init(dir, []string{"mongodb"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// force replaces both files
	require.NoError(t, Init(dir, []string{"mongodb"}, true))

	marker, err := ReadMarker(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"mongodb"}, marker.Services)
}

func TestScaffoldRoundTripsThroughSettings(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Init(dir, []string{"minio", "zincsearch"}, false))

	settings, err := LoadEnv(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"minio", "zincsearch"}, settings.EnabledServices)

	// commented defaults must stay inert
	assert.Equal(t, 4, settings.MinikubeCPUs)
}

func TestReadMarkerMissing(t *testing.T) {
	_, err := ReadMarker(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a devstack project")
}
