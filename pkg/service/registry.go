package service

import (
	"sort"
	"strings"

	"github.com/ansel1/merry"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
)

// All returns the service catalog in deployment order. Storage layers
// come first so the services depending on them find their backends
// already running.
func All() []Service {
	return []Service{
		newPostgresService(),
		newMongoService(),
		newMinioService(),
		newDremioService(),
		newSparkService(),
		newAirflowService(),
		newRedpandaService(),
		newZincService(),
		newElasticsearchService(),
		newDexService(),
		newPostfixService(),
	}
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Service, error) {
	for _, svc := range All() {
		if svc.Name() == name {
			return svc, nil
		}
	}

	return nil, merry.Errorf("unknown service '%s'", name)
}

// Enabled filters the catalog down to the services the settings ask
// for, preserving deployment order. Unknown names are reported instead
// of being silently skipped.
func Enabled(settings *devconfig.Settings) ([]Service, error) {
	if len(settings.EnabledServices) == 0 {
		return All(), nil
	}

	wanted := make(map[string]bool, len(settings.EnabledServices))
	for _, name := range settings.EnabledServices {
		wanted[name] = true
	}

	var enabled []Service

	for _, svc := range All() {
		if wanted[svc.Name()] {
			enabled = append(enabled, svc)
			delete(wanted, svc.Name())
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for name := range wanted {
			unknown = append(unknown, name)
		}

		sort.Strings(unknown)

		return nil, merry.Errorf("unknown services in enabled list: %s", strings.Join(unknown, ", "))
	}

	return enabled, nil
}
