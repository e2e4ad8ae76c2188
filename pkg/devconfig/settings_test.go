package devconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	assert.Equal(t, DefaultNamespace, settings.Namespace)
	assert.Equal(t, DefaultProfile, settings.Profile)
	assert.Equal(t, 4, settings.MinikubeCPUs)
	assert.Equal(t, "docker", settings.MinikubeDriver)
	assert.Equal(t, DefaultWaitTimeout, settings.WaitTimeout)
	assert.Empty(t, settings.EnabledServices)
}

func TestLoadMissingEnvFileFallsBackToDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "no-such.env"))
	require.NoError(t, err)

	assert.Equal(t, DefaultNamespace, settings.Namespace)
	assert.Equal(t, "8g", settings.MinikubeMemory)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "NAMESPACE=warehouse\n" +
		"MINIKUBE_CPUS=8\n" +
		"ENABLED_SERVICES=postgres,minio redpanda\n" +
		"WAIT_TIMEOUT=3m\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	settings, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "warehouse", settings.Namespace)
	assert.Equal(t, 8, settings.MinikubeCPUs)
	assert.Equal(t, []string{"postgres", "minio", "redpanda"}, settings.EnabledServices)
	assert.Equal(t, 3*time.Minute, settings.WaitTimeout)
}

// Multi-word names are the bulk of the legacy .env contract, and viper
// keeps config file keys as written. Every knob has to survive a file
// round trip, not only the single-word ones.
func TestLoadEnvFileReadsEveryLegacyName(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "NAMESPACE=lakehouse\n" +
		"MINIKUBE_PROFILE=lakehouse\n" +
		"MINIKUBE_CPUS=6\n" +
		"MINIKUBE_MEMORY=12g\n" +
		"MINIKUBE_DISK_SIZE=60g\n" +
		"MINIKUBE_DRIVER=kvm2\n" +
		"MOUNT_SOURCE=/srv/data\n" +
		"MOUNT_TARGET=/mnt/data\n" +
		"ENABLED_SERVICES=postgres\n" +
		"SPARK_WORKERS=3\n" +
		"LOG_LEVEL=debug\n" +
		"WAIT_TIMEOUT=7m\n" +
		"GENERATE_PASSWORDS=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	settings, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "lakehouse", settings.Namespace)
	assert.Equal(t, "lakehouse", settings.Profile)
	assert.Equal(t, 6, settings.MinikubeCPUs)
	assert.Equal(t, "12g", settings.MinikubeMemory)
	assert.Equal(t, "60g", settings.MinikubeDisk)
	assert.Equal(t, "kvm2", settings.MinikubeDriver)
	assert.Equal(t, "/srv/data", settings.MountSource)
	assert.Equal(t, "/mnt/data", settings.MountTarget)
	assert.Equal(t, []string{"postgres"}, settings.EnabledServices)
	assert.Equal(t, 3, settings.SparkWorkers)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, 7*time.Minute, settings.WaitTimeout)
	assert.True(t, settings.GeneratePasswords)
}

func TestEnvironmentOverridesEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NAMESPACE=from-file\n"), 0o644))

	t.Setenv("DEVSTACK_NAMESPACE", "from-env")

	settings, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", settings.Namespace)
}

func TestLoadRejectsBadWaitTimeout(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WAIT_TIMEOUT=soon\n"), 0o644))

	_, err := Load(envFile)
	assert.Error(t, err)
}

func TestSplitServiceList(t *testing.T) {
	assert.Empty(t, SplitServiceList(""))
	assert.Equal(t, []string{"postgres"}, SplitServiceList("postgres"))
	assert.Equal(t,
		[]string{"postgres", "minio", "dex"},
		SplitServiceList("Postgres, minio\tdex"))
}
