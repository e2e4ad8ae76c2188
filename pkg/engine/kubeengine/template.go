package kubeengine

import (
	"github.com/ansel1/merry"
	goYaml "gopkg.in/yaml.v3"
	k8sYaml "sigs.k8s.io/yaml"
)

// PatchValues unmarshals a YAML document into a generic map, lets mutate
// rewrite it (chart values, credentials, node ports) and re-serializes.
func PatchValues(document []byte, mutate func(map[string]interface{}) error) ([]byte, error) {
	var values map[string]interface{}

	if err := k8sYaml.Unmarshal(document, &values); err != nil {
		return nil, merry.Prepend(err, "failed to deserialize values")
	}

	if values == nil {
		values = map[string]interface{}{}
	}

	if err := mutate(values); err != nil {
		return nil, merry.Prepend(err, "failed to patch values")
	}

	patched, err := goYaml.Marshal(&values)
	if err != nil {
		return nil, merry.Prepend(err, "failed to serialize values")
	}

	return patched, nil
}

var errWrongValues = merry.New("failed to cast values block")

// NestedMap digs into a values tree, creating intermediate maps on the
// way so callers can set leaves unconditionally.
func NestedMap(values map[string]interface{}, path ...string) (map[string]interface{}, error) {
	current := values

	for _, key := range path {
		child, found := current[key]
		if !found {
			next := map[string]interface{}{}
			current[key] = next
			current = next

			continue
		}

		next, ok := child.(map[string]interface{})
		if !ok {
			return nil, merry.Prependf(errWrongValues, "key '%s'", key)
		}

		current = next
	}

	return current, nil
}
