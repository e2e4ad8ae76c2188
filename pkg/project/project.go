// Package project scaffolds downstream repositories that want a local
// stack: a .env with the knobs spelled out and a marker file recording
// that the directory is devstack-managed.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
	"gitlab.com/dataworks/devstack/pkg/service"
)

const (
	EnvFileName    = ".env"
	MarkerFileName = "devstack.yaml"

	scaffoldFileMode = 0o644
)

// Marker is the devstack.yaml payload. It exists so `devstack` run in a
// project directory can tell a scaffolded project from a bare one.
type Marker struct {
	Project  string   `yaml:"project"`
	Services []string `yaml:"services"`
}

// Init writes the .env scaffold and the marker into dir. Existing files
// are only replaced with force.
func Init(dir string, services []string, force bool) error {
	if err := validateServices(services); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return merry.Prependf(err, "failed to create project directory '%s'", dir)
	}

	envPath := filepath.Join(dir, EnvFileName)
	markerPath := filepath.Join(dir, MarkerFileName)

	if !force {
		for _, path := range []string{envPath, markerPath} {
			if _, err := os.Stat(path); err == nil {
				return merry.Errorf("'%s' already exists, use --force to overwrite", path)
			}
		}
	}

	if err := os.WriteFile(envPath, renderEnv(services), scaffoldFileMode); err != nil {
		return merry.Prependf(err, "failed to write '%s'", envPath)
	}

	marker := Marker{
		Project:  filepath.Base(absOrSelf(dir)),
		Services: services,
	}

	markerBytes, err := yaml.Marshal(&marker)
	if err != nil {
		return merry.Prepend(err, "failed to marshal project marker")
	}

	if err = os.WriteFile(markerPath, markerBytes, scaffoldFileMode); err != nil {
		return merry.Prependf(err, "failed to write '%s'", markerPath)
	}

	llog.Infof("project scaffolded in '%s' with services: %s", dir, strings.Join(services, ", "))

	return nil
}

// LoadEnv reads the settings of a scaffolded project directory.
func LoadEnv(dir string) (*devconfig.Settings, error) {
	return devconfig.Load(filepath.Join(dir, EnvFileName))
}

// ReadMarker loads devstack.yaml from a project directory.
func ReadMarker(dir string) (*Marker, error) {
	content, err := os.ReadFile(filepath.Join(dir, MarkerFileName))
	if err != nil {
		return nil, merry.Prependf(err, "'%s' is not a devstack project", dir)
	}

	var marker Marker
	if err = yaml.Unmarshal(content, &marker); err != nil {
		return nil, merry.Prepend(err, "failed to parse project marker")
	}

	return &marker, nil
}

func validateServices(services []string) error {
	for _, name := range services {
		if _, err := service.Lookup(name); err != nil {
			return err
		}
	}

	return nil
}

// renderEnv produces the .env scaffold: the enabled service list set,
// every other knob present but commented out at its default.
func renderEnv(services []string) []byte {
	defaults := devconfig.DefaultSettings()

	var builder strings.Builder

	builder.WriteString("# Local stack configuration. Uncomment to override a default.\n")
	fmt.Fprintf(&builder, "ENABLED_SERVICES=%s\n\n", strings.Join(services, ","))

	fmt.Fprintf(&builder, "#NAMESPACE=%s\n", defaults.Namespace)
	fmt.Fprintf(&builder, "#MINIKUBE_PROFILE=%s\n", defaults.Profile)
	fmt.Fprintf(&builder, "#MINIKUBE_CPUS=%d\n", defaults.MinikubeCPUs)
	fmt.Fprintf(&builder, "#MINIKUBE_MEMORY=%s\n", defaults.MinikubeMemory)
	fmt.Fprintf(&builder, "#MINIKUBE_DISK_SIZE=%s\n", defaults.MinikubeDisk)
	fmt.Fprintf(&builder, "#MINIKUBE_DRIVER=%s\n", defaults.MinikubeDriver)
	fmt.Fprintf(&builder, "#MOUNT_SOURCE=\n")
	fmt.Fprintf(&builder, "#MOUNT_TARGET=\n")
	fmt.Fprintf(&builder, "#SPARK_WORKERS=%d\n", defaults.SparkWorkers)
	fmt.Fprintf(&builder, "#LOG_LEVEL=%s\n", defaults.LogLevel)
	fmt.Fprintf(&builder, "#WAIT_TIMEOUT=%s\n", defaults.WaitTimeout)
	fmt.Fprintf(&builder, "#GENERATE_PASSWORDS=false\n")

	return []byte(builder.String())
}

func absOrSelf(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	return abs
}
