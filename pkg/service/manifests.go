package service

import (
	"embed"
	"path"
	"sort"

	"github.com/ansel1/merry"
)

//go:embed manifests
var manifestFS embed.FS

// loadManifests returns the embedded manifests of one service, ordered
// by file name. The NN- prefix of each file fixes the apply order;
// removal happens in reverse.
func loadManifests(serviceName string) ([][]byte, error) {
	dir := path.Join("manifests", serviceName)

	entries, err := manifestFS.ReadDir(dir)
	if err != nil {
		return nil, merry.Prependf(err, "no embedded manifests for service '%s'", serviceName)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	manifests := make([][]byte, 0, len(names))

	for _, name := range names {
		content, err := manifestFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, merry.Prependf(err, "failed to read manifest '%s'", name)
		}

		manifests = append(manifests, content)
	}

	return manifests, nil
}

// loadValues reads an embedded helm values template of a chart service.
func loadValues(serviceName, fileName string) ([]byte, error) {
	content, err := manifestFS.ReadFile(path.Join("manifests", serviceName, fileName))
	if err != nil {
		return nil, merry.Prependf(err, "failed to read values '%s' of '%s'", fileName, serviceName)
	}

	return content, nil
}
