package service

import (
	"context"
	"os"

	"github.com/ansel1/merry"

	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	airflowWebPodPort   = 8080
	airflowWebLocalPort = 18880
	airflowReleaseName  = "airflow"
	airflowNodePort     = 30880
)

// airflow is installed from the official apache-airflow chart rather
// than raw manifests: the upstream project only supports chart
// deployments for its multi-component topology.
type airflowService struct {
	commonService
}

func newAirflowService() *airflowService {
	return &airflowService{
		commonService: commonService{
			name:        "airflow",
			description: "Apache Airflow workflow orchestrator",
			selector:    "release=" + airflowReleaseName,
			expectPods:  2,
			serviceName: "airflow-webserver",
			container:   "webserver",
			ports: []portSpec{
				{name: "airflow-ui", scheme: "http"},
			},
		},
	}
}

func (as *airflowService) Deploy(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
		return err
	}

	values, err := as.chartValues()
	if err != nil {
		return err
	}

	installOptions := &kubeengine.InstallOptions{
		ChartName:      "apache-airflow/airflow",
		ChartNamespace: st.Settings.Namespace,
		ReleaseName:    airflowReleaseName,
		RepositoryURL:  "https://airflow.apache.org",
		RepositoryName: "apache-airflow",
		ValuesYaml:     string(values),
		Timeout:        st.Settings.WaitTimeout,
	}

	if err = engine.DeployChart(ctx, installOptions, st.Settings.LogLevel); err != nil {
		return merry.Prepend(err, "failed to install airflow chart")
	}

	// the chart install returns once the release is recorded, the
	// workloads themselves still have to roll out
	for _, deployment := range []string{"airflow-webserver", "airflow-scheduler"} {
		err = engine.WaitDeploymentReady(ctx, st.Settings.Namespace, deployment, st.Settings.WaitTimeout)
		if err != nil {
			return err
		}
	}

	return nil
}

// chartValues patches the embedded values template with the fixed
// NodePort so the UI address stays stable across redeploys.
func (as *airflowService) chartValues() ([]byte, error) {
	template, err := loadValues(as.name, "values.yaml")
	if err != nil {
		return nil, err
	}

	return kubeengine.PatchValues(template, func(values map[string]interface{}) error {
		service, err := kubeengine.NestedMap(values, "webserver", "service")
		if err != nil {
			return err
		}

		service["type"] = "NodePort"
		service["ports"] = []interface{}{
			map[string]interface{}{
				"name":     "airflow-ui",
				"port":     airflowWebPodPort,
				"nodePort": airflowNodePort,
			},
		}

		return nil
	})
}

func (as *airflowService) Remove(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	return engine.UninstallRelease(st.Settings.Namespace, airflowReleaseName, st.Settings.LogLevel)
}

func (as *airflowService) Health(ctx context.Context, st *state.State) error {
	return as.forwardAndProbe(ctx, st, airflowWebLocalPort, airflowWebPodPort, func(port int) error {
		return httpHealthy(ctx, localProbeURL(port, "/health"))
	})
}

// schedulerPod is where the airflow CLI has to run: only the scheduler
// mounts the DAG bundle and the executor config.
func (as *airflowService) schedulerPod(ctx context.Context, st *state.State) (string, error) {
	engine, err := st.EnsureEngine()
	if err != nil {
		return "", err
	}

	pods, err := engine.ListPods(ctx, st.Settings.Namespace,
		"release="+airflowReleaseName+",component=scheduler")
	if err != nil {
		return "", err
	}

	if len(pods) == 0 {
		return "", merry.New("no airflow scheduler pod found, is airflow deployed?")
	}

	return pods[0].Name, nil
}

func (as *airflowService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "airflow [-- airflow-args...]",
			Short: "Run the airflow CLI inside the scheduler pod",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				podName, err := as.schedulerPod(ctx, st)
				if err != nil {
					return err
				}

				engine, err := st.EnsureEngine()
				if err != nil {
					return err
				}

				command := append([]string{"airflow"}, args...)

				return engine.ExecInteractive(
					ctx, st.Settings.Namespace, podName, "scheduler", command)
			},
		},
		{
			Use:   "dags-list",
			Short: "List the DAGs the scheduler currently knows",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				podName, err := as.schedulerPod(ctx, st)
				if err != nil {
					return err
				}

				engine, err := st.EnsureEngine()
				if err != nil {
					return err
				}

				output, err := engine.ExecCaptured(ctx, st.Settings.Namespace,
					podName, "scheduler", []string{"airflow", "dags", "list"})
				if err != nil {
					return merry.Prependf(err, "airflow dags list failed: %s", output)
				}

				_, _ = os.Stdout.WriteString(output)

				return nil
			},
		},
	}
}
