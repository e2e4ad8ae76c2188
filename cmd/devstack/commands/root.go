package commands

import (
	"time"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
	"gitlab.com/dataworks/devstack/pkg/state"
)

// flagOverrides collects the persistent flags so values from the .env
// file only lose to flags the user actually set.
type flagOverrides struct {
	envFile     string
	namespace   string
	profile     string
	logLevel    string
	kubeconfig  string
	waitTimeout time.Duration
}

func Execute() {
	defaults := devconfig.DefaultSettings()

	overrides := &flagOverrides{
		envFile:     defaults.EnvFile,
		namespace:   defaults.Namespace,
		profile:     defaults.Profile,
		logLevel:    defaults.LogLevel,
		kubeconfig:  defaults.KubeconfigPath,
		waitTimeout: defaults.WaitTimeout,
	}

	st := &state.State{}

	rootCmd := &cobra.Command{
		Use:   "devstack",
		Short: "devstack - a local data platform on a single-node minikube cluster",
		Long: `
devstack deploys a fixed catalog of backing services (PostgreSQL, MongoDB,
MinIO, Dremio, Spark, Airflow, Redpanda, ZincSearch, Elasticsearch, Dex,
Postfix) onto a local minikube cluster, and proxies the native CLI of each
service through pod exec.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := devconfig.Load(overrides.envFile)
			if err != nil {
				return merry.Prepend(err, "failed to load settings")
			}

			applyOverrides(cmd, settings, overrides)

			level, err := llog.ParseLevel(settings.LogLevel)
			if err != nil {
				return merry.Wrap(err)
			}
			llog.SetLevel(level)

			*st = *state.New(settings)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&overrides.envFile,
		"env-file", overrides.envFile,
		"Path of the .env file with stack settings")

	rootCmd.PersistentFlags().StringVarP(&overrides.namespace,
		"namespace", "n", overrides.namespace,
		"Kubernetes namespace holding the stack")

	rootCmd.PersistentFlags().StringVar(&overrides.profile,
		"profile", overrides.profile,
		"Minikube profile of the cluster")

	rootCmd.PersistentFlags().StringVarP(&overrides.logLevel,
		"log-level", "v", overrides.logLevel,
		"Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.PersistentFlags().StringVar(&overrides.kubeconfig,
		"kubeconfig", overrides.kubeconfig,
		"Path of the kubeconfig file")

	rootCmd.PersistentFlags().DurationVar(&overrides.waitTimeout,
		"wait-timeout", overrides.waitTimeout,
		"Budget for one service to reach Ready after deploy")

	rootCmd.AddCommand(newClusterCommand(st),
		newUpCommand(st),
		newDownCommand(st),
		newStatusCommand(st),
		newProjectCommand(),
		newVersionCommand())
	rootCmd.AddCommand(newServiceCommands(st)...)

	_ = rootCmd.Execute()
}

// applyOverrides copies only the flags the user set over the settings
// built from the .env file and the environment.
func applyOverrides(cmd *cobra.Command, settings *devconfig.Settings, overrides *flagOverrides) {
	flags := cmd.Flags()

	if flags.Changed("namespace") {
		settings.Namespace = overrides.namespace
	}

	if flags.Changed("profile") {
		settings.Profile = overrides.profile
	}

	if flags.Changed("log-level") {
		settings.LogLevel = overrides.logLevel
	}

	if flags.Changed("kubeconfig") {
		settings.KubeconfigPath = overrides.kubeconfig
	}

	if flags.Changed("wait-timeout") {
		settings.WaitTimeout = overrides.waitTimeout
	}
}
