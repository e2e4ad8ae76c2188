package minikube

import (
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	llog "github.com/sirupsen/logrus"
)

// commandRunner abstracts invocations of the minikube binary so the
// argument construction can be tested without a cluster.
type commandRunner interface {
	// Run executes minikube with args and returns the combined output.
	Run(ctx context.Context, args ...string) ([]byte, error)

	// StartBackground launches minikube with args detached from the
	// current command and returns the running process handle.
	StartBackground(ctx context.Context, args ...string) (*exec.Cmd, error)
}

type execRunner struct {
	binary string
}

func newExecRunner() *execRunner {
	return &execRunner{binary: "minikube"}
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	llog.Debugf("running %s", cmd.String())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, errors.Wrapf(err, "minikube command failed, output `%s`", string(output))
	}

	return output, nil
}

func (r *execRunner) StartBackground(ctx context.Context, args ...string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	llog.Debugf("starting in background %s", cmd.String())

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start minikube in background")
	}

	return cmd, nil
}
