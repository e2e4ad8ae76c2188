package service

import (
	"context"

	"github.com/ansel1/merry"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	sparkUIPodPort   = 8080
	sparkUILocalPort = 18080

	sparkMasterURL = "spark://spark-master:7077"
)

// spark runs a classic standalone pair: one master and one worker
// deployment, both matched by the shared app=spark selector.
type sparkService struct {
	commonService
}

func newSparkService() *sparkService {
	return &sparkService{
		commonService: commonService{
			name:        "spark",
			description: "Apache Spark standalone cluster",
			selector:    "app=spark",
			expectPods:  2,
			serviceName: "spark-master",
			container:   "spark",
			ports: []portSpec{
				{name: "ui", scheme: "http"},
				{name: "master", scheme: "spark"},
			},
		},
	}
}

func (ss *sparkService) Deploy(ctx context.Context, st *state.State) error {
	if err := ss.deployManifests(ctx, st); err != nil {
		return err
	}

	return ss.scaleWorkers(ctx, st)
}

// scaleWorkers grows the worker deployment past the single replica the
// manifests ship when the settings ask for more.
func (ss *sparkService) scaleWorkers(ctx context.Context, st *state.State) error {
	workers := st.Settings.SparkWorkers
	if workers <= 1 {
		return nil
	}

	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	err = engine.ScaleDeployment(ctx, st.Settings.Namespace, "spark-worker", int32(workers))
	if err != nil {
		return err
	}

	return engine.WaitPodsBySelector(
		ctx,
		st.Settings.Namespace,
		ss.selector,
		workers+1,
		st.Settings.WaitTimeout,
	)
}

func (ss *sparkService) Remove(ctx context.Context, st *state.State) error {
	return ss.removeManifests(ctx, st)
}

func (ss *sparkService) Health(ctx context.Context, st *state.State) error {
	return ss.forwardAndProbe(ctx, st, sparkUILocalPort, sparkUIPodPort, func(port int) error {
		return httpHealthy(ctx, localProbeURL(port, "/"))
	})
}

// masterPod returns the stable master pod, the only sensible exec
// target for submissions.
func (ss *sparkService) masterPod(ctx context.Context, st *state.State) (string, error) {
	engine, err := st.EnsureEngine()
	if err != nil {
		return "", err
	}

	pods, err := engine.ListPods(ctx, st.Settings.Namespace, "app=spark,role=master")
	if err != nil {
		return "", err
	}

	if len(pods) == 0 {
		return "", merry.New("no spark master pod found, is spark deployed?")
	}

	return pods[0].Name, nil
}

func (ss *sparkService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "spark-submit [-- submit-args...]",
			Short: "Run spark-submit on the master against the local cluster",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				podName, err := ss.masterPod(ctx, st)
				if err != nil {
					return err
				}

				engine, err := st.EnsureEngine()
				if err != nil {
					return err
				}

				command := append(
					[]string{"spark-submit", "--master", sparkMasterURL}, args...)

				return engine.ExecInteractive(
					ctx, st.Settings.Namespace, podName, ss.container, command)
			},
		},
		{
			Use:   "spark-shell",
			Short: "Open an interactive Scala shell on the master",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				podName, err := ss.masterPod(ctx, st)
				if err != nil {
					return err
				}

				engine, err := st.EnsureEngine()
				if err != nil {
					return err
				}

				command := append(
					[]string{"spark-shell", "--master", sparkMasterURL}, args...)

				return engine.ExecInteractive(
					ctx, st.Settings.Namespace, podName, ss.container, command)
			},
		},
	}
}
