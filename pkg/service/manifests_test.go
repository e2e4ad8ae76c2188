package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "k8s.io/api/core/v1"
	k8sYaml "sigs.k8s.io/yaml"

	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
)

func manifestBackedServices() map[string]commonService {
	return map[string]commonService{
		"postgres":   newPostgresService().commonService,
		"mongodb":    newMongoService().commonService,
		"minio":      newMinioService().commonService,
		"dremio":     newDremioService().commonService,
		"spark":      newSparkService().commonService,
		"redpanda":   newRedpandaService().commonService,
		"zincsearch": newZincService().commonService,
		"dex":        newDexService().commonService,
		"postfix":    newPostfixService().commonService,
	}
}

func TestEmbeddedManifestsDecode(t *testing.T) {
	for name := range manifestBackedServices() {
		manifests, err := loadManifests(name)
		require.NoErrorf(t, err, "service '%s'", name)
		require.NotEmptyf(t, manifests, "service '%s' ships no manifests", name)

		for index, manifest := range manifests {
			_, err := kubeengine.DecodeManifest(manifest)
			assert.NoErrorf(t, err, "service '%s' manifest %d does not decode", name, index)
		}
	}
}

// Every catalog entry owns fixed NodePorts, so collisions between two
// services would break one of them silently.
func TestNodePortsAreUniqueAcrossCatalog(t *testing.T) {
	claimed := map[int32]string{}

	for name := range manifestBackedServices() {
		manifests, err := loadManifests(name)
		require.NoError(t, err)

		for _, manifest := range manifests {
			object, err := kubeengine.DecodeManifest(manifest)
			require.NoError(t, err)

			serviceObject, ok := object.(*v1.Service)
			if !ok {
				continue
			}

			for _, port := range serviceObject.Spec.Ports {
				require.NotZerof(t, port.NodePort,
					"service '%s' port '%s' has no fixed nodePort", name, port.Name)

				owner, taken := claimed[port.NodePort]
				assert.Falsef(t, taken,
					"nodePort %d claimed by both '%s' and '%s'", port.NodePort, owner, name)
				claimed[port.NodePort] = name
			}
		}
	}

	// the chart services claim their NodePorts through values rather
	// than manifests
	for chartService, chartPort := range map[string]int32{
		"airflow":       airflowNodePort,
		"elasticsearch": elasticNodePortFromValues(t),
	} {
		owner, taken := claimed[chartPort]
		assert.Falsef(t, taken,
			"nodePort %d claimed by both '%s' and '%s'", chartPort, owner, chartService)
		claimed[chartPort] = chartService
	}
}

func elasticNodePortFromValues(t *testing.T) int32 {
	t.Helper()

	raw, err := loadValues("elasticsearch", "values.yaml")
	require.NoError(t, err)

	var values map[string]interface{}
	require.NoError(t, k8sYaml.Unmarshal(raw, &values))

	serviceValues, err := kubeengine.NestedMap(values, "service")
	require.NoError(t, err)

	nodePort, ok := serviceValues["nodePort"].(float64)
	require.True(t, ok, "elasticsearch values carry no numeric service.nodePort")

	return int32(nodePort)
}

// The port names the URL command looks up must exist on the Service
// object the manifests create.
func TestServicePortNamesMatchCatalog(t *testing.T) {
	for name, common := range manifestBackedServices() {
		manifests, err := loadManifests(name)
		require.NoError(t, err)

		published := map[string]bool{}

		for _, manifest := range manifests {
			object, err := kubeengine.DecodeManifest(manifest)
			require.NoError(t, err)

			serviceObject, ok := object.(*v1.Service)
			if !ok || serviceObject.Name != common.serviceName {
				continue
			}

			for _, port := range serviceObject.Spec.Ports {
				published[port.Name] = true
			}
		}

		for _, port := range common.ports {
			assert.Truef(t, published[port.name],
				"service '%s' looks up port '%s' that no manifest publishes", name, port.name)
		}
	}
}

func TestChartServicesShipValues(t *testing.T) {
	for _, name := range []string{"airflow", "elasticsearch"} {
		values, err := loadValues(name, "values.yaml")
		require.NoErrorf(t, err, "chart service '%s'", name)
		assert.NotEmpty(t, values)
	}
}

func TestLoadManifestsUnknownService(t *testing.T) {
	_, err := loadManifests("oracle")
	require.Error(t, err)
}
