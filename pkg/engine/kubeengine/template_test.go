package kubeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	k8sYaml "sigs.k8s.io/yaml"
)

const airflowValues = `
executor: LocalExecutor
webserver:
  service:
    type: NodePort
`

func TestPatchValues(t *testing.T) {
	patched, err := PatchValues([]byte(airflowValues), func(values map[string]interface{}) error {
		service, err := NestedMap(values, "webserver", "service")
		if err != nil {
			return err
		}
		service["nodePort"] = 30880

		return nil
	})
	require.NoError(t, err)

	var roundTrip map[string]interface{}
	require.NoError(t, k8sYaml.Unmarshal(patched, &roundTrip))

	webserver := roundTrip["webserver"].(map[string]interface{})
	service := webserver["service"].(map[string]interface{})
	assert.Equal(t, float64(30880), service["nodePort"])
	assert.Equal(t, "LocalExecutor", roundTrip["executor"])
}

func TestNestedMapCreatesMissingBranches(t *testing.T) {
	values := map[string]interface{}{}

	leaf, err := NestedMap(values, "a", "b", "c")
	require.NoError(t, err)
	leaf["x"] = 1

	a := values["a"].(map[string]interface{})
	b := a["b"].(map[string]interface{})
	c := b["c"].(map[string]interface{})
	assert.Equal(t, 1, c["x"])
}

func TestNestedMapRejectsScalarOnPath(t *testing.T) {
	values := map[string]interface{}{"replicas": 3}

	_, err := NestedMap(values, "replicas", "deep")
	assert.Error(t, err)
}

func TestPatchValuesEmptyDocument(t *testing.T) {
	patched, err := PatchValues(nil, func(values map[string]interface{}) error {
		values["replicas"] = 1

		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, string(patched), "replicas: 1")
}
