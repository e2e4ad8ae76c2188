package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
)

func TestCatalogOrderAndUniqueness(t *testing.T) {
	services := All()
	require.Len(t, services, 11)

	// storage backends have to come up before their consumers
	assert.Equal(t, "postgres", services[0].Name())
	assert.Equal(t, "minio", services[2].Name())
	assert.Equal(t, "postfix", services[len(services)-1].Name())

	seen := map[string]bool{}
	for _, svc := range services {
		assert.Falsef(t, seen[svc.Name()], "duplicate service name '%s'", svc.Name())
		seen[svc.Name()] = true

		assert.NotEmpty(t, svc.Description())
	}
}

func TestLookup(t *testing.T) {
	svc, err := Lookup("redpanda")
	require.NoError(t, err)
	assert.Equal(t, "redpanda", svc.Name())

	_, err = Lookup("cassandra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")
}

func TestEnabledPreservesCatalogOrder(t *testing.T) {
	settings := devconfig.DefaultSettings()
	settings.EnabledServices = []string{"redpanda", "postgres", "minio"}

	enabled, err := Enabled(settings)
	require.NoError(t, err)
	require.Len(t, enabled, 3)

	// catalog order, not the order of the enabled list
	assert.Equal(t, "postgres", enabled[0].Name())
	assert.Equal(t, "minio", enabled[1].Name())
	assert.Equal(t, "redpanda", enabled[2].Name())
}

func TestEnabledEmptyListMeansEverything(t *testing.T) {
	settings := devconfig.DefaultSettings()
	settings.EnabledServices = nil

	enabled, err := Enabled(settings)
	require.NoError(t, err)
	assert.Len(t, enabled, len(All()))
}

func TestEnabledRejectsUnknownName(t *testing.T) {
	settings := devconfig.DefaultSettings()
	settings.EnabledServices = []string{"postgres", "oracle"}

	_, err := Enabled(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestEveryServiceHasHealthCheck(t *testing.T) {
	for _, svc := range All() {
		_, ok := svc.(HealthChecker)
		assert.Truef(t, ok, "service '%s' has no health check", svc.Name())
	}
}

func TestExecerCommandsAreNamed(t *testing.T) {
	for _, svc := range All() {
		execer, ok := svc.(Execer)
		if !ok {
			continue
		}

		for _, command := range execer.ExecCommands() {
			assert.NotEmptyf(t, command.Use, "service '%s' has an unnamed exec command", svc.Name())
			assert.NotNilf(t, command.Run, "service '%s' command '%s' has no runner", svc.Name(), command.Use)
		}
	}
}
