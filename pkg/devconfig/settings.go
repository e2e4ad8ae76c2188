package devconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DefaultNamespace = "devstack"
	DefaultProfile   = "devstack"

	defaultCPUs     = 4
	defaultMemory   = "8g"
	defaultDiskSize = "40g"
	defaultDriver   = "docker"

	defaultSparkWorkers = 1

	// DefaultWaitTimeout is the wall-clock budget for a single service
	// to reach Ready state after its manifests are applied.
	DefaultWaitTimeout = 10 * time.Minute
)

// Settings carries every knob the commands read. Values come from defaults,
// then an optional .env file, then the process environment.
type Settings struct {
	Namespace string
	Profile   string

	MinikubeCPUs   int
	MinikubeMemory string
	MinikubeDisk   string
	MinikubeDriver string

	MountSource string
	MountTarget string

	EnabledServices []string
	SparkWorkers    int

	LogLevel       string
	KubeconfigPath string
	EnvFile        string

	WaitTimeout       time.Duration
	GeneratePasswords bool
}

// Legacy variable names kept compatible with the shell-script era so an
// existing project .env keeps working unchanged. Viper lowercases config
// file keys on read, so the lowercased legacy name doubles as the config
// key and an .env entry lands on the same key the getters use.
var legacyEnvNames = []string{
	"NAMESPACE",
	"MINIKUBE_PROFILE",
	"MINIKUBE_CPUS",
	"MINIKUBE_MEMORY",
	"MINIKUBE_DISK_SIZE",
	"MINIKUBE_DRIVER",
	"MOUNT_SOURCE",
	"MOUNT_TARGET",
	"ENABLED_SERVICES",
	"SPARK_WORKERS",
	"LOG_LEVEL",
	"KUBECONFIG",
	"WAIT_TIMEOUT",
	"GENERATE_PASSWORDS",
}

func DefaultSettings() *Settings {
	return &Settings{
		Namespace:         DefaultNamespace,
		Profile:           DefaultProfile,
		MinikubeCPUs:      defaultCPUs,
		MinikubeMemory:    defaultMemory,
		MinikubeDisk:      defaultDiskSize,
		MinikubeDriver:    defaultDriver,
		MountSource:       "",
		MountTarget:       "",
		EnabledServices:   []string{},
		SparkWorkers:      defaultSparkWorkers,
		LogLevel:          llog.InfoLevel.String(),
		KubeconfigPath:    defaultKubeconfigPath(),
		EnvFile:           ".env",
		WaitTimeout:       DefaultWaitTimeout,
		GeneratePasswords: false,
	}
}

// Load builds Settings from defaults, the given .env file (when it exists)
// and the environment. DEVSTACK_-prefixed variables win over legacy names.
func Load(envFile string) (*Settings, error) {
	vpr := viper.New()

	defaults := DefaultSettings()
	vpr.SetDefault("namespace", defaults.Namespace)
	vpr.SetDefault("minikube_profile", defaults.Profile)
	vpr.SetDefault("minikube_cpus", defaults.MinikubeCPUs)
	vpr.SetDefault("minikube_memory", defaults.MinikubeMemory)
	vpr.SetDefault("minikube_disk_size", defaults.MinikubeDisk)
	vpr.SetDefault("minikube_driver", defaults.MinikubeDriver)
	vpr.SetDefault("mount_source", defaults.MountSource)
	vpr.SetDefault("mount_target", defaults.MountTarget)
	vpr.SetDefault("enabled_services", "")
	vpr.SetDefault("spark_workers", defaults.SparkWorkers)
	vpr.SetDefault("log_level", defaults.LogLevel)
	vpr.SetDefault("kubeconfig", defaults.KubeconfigPath)
	vpr.SetDefault("wait_timeout", defaults.WaitTimeout.String())
	vpr.SetDefault("generate_passwords", defaults.GeneratePasswords)

	for _, legacy := range legacyEnvNames {
		if err := vpr.BindEnv(strings.ToLower(legacy), "DEVSTACK_"+legacy, legacy); err != nil {
			return nil, merry.Prepend(err, "failed to bind environment variable")
		}
	}

	if envFile != "" {
		vpr.SetConfigFile(envFile)
		vpr.SetConfigType("env")

		if err := vpr.ReadInConfig(); err != nil {
			if !isConfigNotFound(err) {
				return nil, merry.Prependf(err, "failed to read env file '%s'", envFile)
			}

			llog.Debugf("env file '%s' not found, using defaults and environment", envFile)
		}
	}

	waitTimeout, err := time.ParseDuration(vpr.GetString("wait_timeout"))
	if err != nil {
		return nil, merry.Prependf(err, "invalid WAIT_TIMEOUT '%s'", vpr.GetString("wait_timeout"))
	}

	settings := &Settings{
		Namespace:         vpr.GetString("namespace"),
		Profile:           vpr.GetString("minikube_profile"),
		MinikubeCPUs:      vpr.GetInt("minikube_cpus"),
		MinikubeMemory:    vpr.GetString("minikube_memory"),
		MinikubeDisk:      vpr.GetString("minikube_disk_size"),
		MinikubeDriver:    vpr.GetString("minikube_driver"),
		MountSource:       vpr.GetString("mount_source"),
		MountTarget:       vpr.GetString("mount_target"),
		EnabledServices:   SplitServiceList(vpr.GetString("enabled_services")),
		SparkWorkers:      vpr.GetInt("spark_workers"),
		LogLevel:          vpr.GetString("log_level"),
		KubeconfigPath:    vpr.GetString("kubeconfig"),
		EnvFile:           envFile,
		WaitTimeout:       waitTimeout,
		GeneratePasswords: vpr.GetBool("generate_passwords"),
	}

	return settings, nil
}

// SplitServiceList parses the ENABLED_SERVICES value: names separated by
// commas or whitespace, empty entries dropped.
func SplitServiceList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	services := make([]string, 0, len(fields))
	for _, field := range fields {
		if name := strings.TrimSpace(field); name != "" {
			services = append(services, strings.ToLower(name))
		}
	}

	return services
}

func defaultKubeconfigPath() string {
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config"
	}

	return filepath.Join(homeDir, ".kube", "config")
}

func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}

	// viper returns a plain *os.PathError when SetConfigFile points to
	// a missing path
	var pathErr *os.PathError

	return errors.As(err, &pathErr)
}
