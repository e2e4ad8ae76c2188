package service

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"

	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
	"gitlab.com/dataworks/devstack/pkg/state"
	"gitlab.com/dataworks/devstack/pkg/tools"
)

// portSpec names one NodePort of the service Service object.
type portSpec struct {
	name   string
	scheme string
}

// commonService carries what every catalog entry needs: the selector of
// its pods, the expected pod count, the Service object its NodePorts
// hang off, and the container used for exec and logs.
type commonService struct {
	name        string
	description string

	selector    string
	expectPods  int
	serviceName string
	container   string
	ports       []portSpec
}

func (cs *commonService) Name() string { return cs.name }

func (cs *commonService) Description() string { return cs.description }

// deployManifests ensures the namespace, applies every embedded manifest
// in order and waits for the expected pods to report Ready.
func (cs *commonService) deployManifests(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	llog.Infof("Prepare '%s' deployment", cs.name)

	if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
		return err
	}

	manifests, err := loadManifests(cs.name)
	if err != nil {
		return err
	}

	for i, manifest := range manifests {
		tag := fmt.Sprintf("%s manifest %d/%d", cs.name, i+1, len(manifests))
		if err = engine.ApplyManifestWithRetry(ctx, st.Settings.Namespace, tag, manifest); err != nil {
			return merry.Prependf(err, "failed to apply %s", tag)
		}
	}

	llog.Infof("%s manifests applied, waiting for %d pod(s)", cs.name, cs.expectPods)

	return cs.waitReady(ctx, st)
}

func (cs *commonService) waitReady(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	err = engine.WaitPodsBySelector(
		ctx,
		st.Settings.Namespace,
		cs.selector,
		cs.expectPods,
		st.Settings.WaitTimeout,
	)
	if err != nil {
		return merry.Prependf(err, "%s did not become ready", cs.name)
	}

	llog.Infof("%s deploy: success", cs.name)

	return nil
}

// removeManifests deletes the embedded manifests in reverse apply order.
func (cs *commonService) removeManifests(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	manifests, err := loadManifests(cs.name)
	if err != nil {
		return err
	}

	for i := len(manifests) - 1; i >= 0; i-- {
		if err = engine.DeleteManifest(ctx, st.Settings.Namespace, manifests[i]); err != nil {
			return merry.Prependf(err, "failed to remove %s manifest %d", cs.name, i+1)
		}
	}

	llog.Infof("%s remove: success", cs.name)

	return nil
}

func (cs *commonService) Restart(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	llog.Infof("restarting '%s' pods", cs.name)

	if err = engine.DeletePodsBySelector(ctx, st.Settings.Namespace, cs.selector); err != nil {
		return err
	}

	return cs.waitReady(ctx, st)
}

func (cs *commonService) Status(ctx context.Context, st *state.State) (Status, error) {
	engine, err := st.EnsureEngine()
	if err != nil {
		return Status{}, err
	}

	ready, total, err := engine.CountReadyPods(ctx, st.Settings.Namespace, cs.selector)
	if err != nil {
		return Status{}, err
	}

	return summarize(ready, total, cs.expectPods), nil
}

func summarize(ready, total, expected int) Status {
	status := Status{ReadyPods: ready, TotalPods: total}

	switch {
	case total == 0:
		status.State = StateNotDeployed
	case ready >= expected:
		status.State = StateReady
	case ready == 0:
		status.State = StatePending
	default:
		status.State = StateDegraded
	}

	return status
}

func (cs *commonService) URLs(ctx context.Context, st *state.State) ([]AccessURL, error) {
	if len(cs.ports) == 0 {
		return nil, nil
	}

	engine, err := st.EnsureEngine()
	if err != nil {
		return nil, err
	}

	nodeIP, err := st.ResolveNodeIP(ctx)
	if err != nil {
		return nil, err
	}

	urls := make([]AccessURL, 0, len(cs.ports))

	for _, port := range cs.ports {
		resolved, err := engine.NodePortURL(
			ctx, nodeIP, st.Settings.Namespace, cs.serviceName, port.name, port.scheme)
		if err != nil {
			return nil, err
		}

		urls = append(urls, AccessURL{Name: port.name, URL: resolved})
	}

	return urls, nil
}

func (cs *commonService) Logs(ctx context.Context, st *state.State, follow bool, tail int64) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	pod, err := cs.firstPod(ctx, st)
	if err != nil {
		return err
	}

	return engine.PodLogs(ctx, st.Settings.Namespace, pod.Name, cs.container, follow, tail, os.Stdout)
}

// firstPod returns the lexicographically first pod of the service, which
// for a StatefulSet is the stable -0 replica.
func (cs *commonService) firstPod(ctx context.Context, st *state.State) (*v1.Pod, error) {
	engine, err := st.EnsureEngine()
	if err != nil {
		return nil, err
	}

	pods, err := engine.ListPods(ctx, st.Settings.Namespace, cs.selector)
	if err != nil {
		return nil, err
	}

	if len(pods) == 0 {
		return nil, merry.Errorf("no pods found for service '%s', is it deployed?", cs.name)
	}

	sort.Slice(pods, func(i, j int) bool { return pods[i].Name < pods[j].Name })

	return &pods[0], nil
}

// execInteractive attaches the terminal to a command in the first pod.
func (cs *commonService) execInteractive(ctx context.Context, st *state.State, command []string) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	pod, err := cs.firstPod(ctx, st)
	if err != nil {
		return err
	}

	return engine.ExecInteractive(ctx, st.Settings.Namespace, pod.Name, cs.container, command)
}

// execStreamed runs a command without a TTY, passing its output through
// unchanged. Used for dumps and other pipe-friendly commands.
func (cs *commonService) execStreamed(ctx context.Context, st *state.State, command []string) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	pod, err := cs.firstPod(ctx, st)
	if err != nil {
		return err
	}

	return engine.ExecInPod(ctx, st.Settings.Namespace, pod.Name, kubeengine.ExecOptions{
		Container: cs.container,
		Command:   command,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	})
}

// execCaptured runs a command in the first pod and returns its output.
func (cs *commonService) execCaptured(ctx context.Context, st *state.State, command []string) (string, error) {
	engine, err := st.EnsureEngine()
	if err != nil {
		return "", err
	}

	pod, err := cs.firstPod(ctx, st)
	if err != nil {
		return "", err
	}

	return engine.ExecCaptured(ctx, st.Settings.Namespace, pod.Name, cs.container, command)
}

// forwardAndProbe opens a temporary tunnel to the first pod and runs the
// probe against the local end. Used by the protocol-level health checks.
func (cs *commonService) forwardAndProbe(
	ctx context.Context,
	st *state.State,
	localPort, podPort int,
	probe func(port int) error,
) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	pod, err := cs.firstPod(ctx, st)
	if err != nil {
		return err
	}

	// the far end of the tunnel has to be a Running pod
	_, err = engine.WaitPod(ctx, pod.Name, st.Settings.Namespace,
		kubeengine.PodWaitingNotWaitCreation, kubeengine.PodWaitingTime)
	if err != nil {
		return err
	}

	chosenPort, stop, err := engine.ForwardToPod(st.Settings.Namespace, pod.Name, localPort, podPort)
	if err != nil {
		return err
	}

	defer close(stop)

	return tools.Retry(
		fmt.Sprintf("%s health probe", cs.name),
		func() error { return probe(chosenPort) },
		tools.RetryStandardRetryCount,
		tools.RetryStandardWaitingTime,
	)
}
