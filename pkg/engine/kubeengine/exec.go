package kubeengine

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"
	"k8s.io/client-go/tools/remotecommand"
	"k8s.io/kubectl/pkg/scheme"
)

// ExecOptions describes one command run inside a pod container.
type ExecOptions struct {
	Container string
	Command   []string

	// TTY attaches the local terminal, used for interactive shells
	// like psql and mongosh.
	TTY   bool
	Stdin io.Reader

	Stdout io.Writer
	Stderr io.Writer
}

// ExecInPod runs a command in a pod via the exec subresource, the way
// `kubectl exec` does.
func (e *Engine) ExecInPod(ctx context.Context, namespace, podName string, opts ExecOptions) error {
	restConfig, err := e.GetKubeConfig()
	if err != nil {
		return merry.Prepend(err, "failed to get kubeconfig for exec")
	}

	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for exec")
	}

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	executeRequest := clientSet.CoreV1().RESTClient().Post().
		Resource(ResourcePodName).
		Name(podName).
		Namespace(namespace).
		SubResource(SubresourceExec)

	executeRequest.VersionedParams(&v1.PodExecOptions{
		Stdin:     opts.Stdin != nil,
		Stdout:    true,
		Stderr:    !opts.TTY,
		TTY:       opts.TTY,
		Container: opts.Container,
		Command:   opts.Command,
	}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(restConfig, "POST", executeRequest.URL())
	if err != nil {
		return merry.Prepend(err, "failed to create executor")
	}

	llog.Debugf("exec in pod '%s/%s': %v", namespace, podName, opts.Command)

	streamOptions := remotecommand.StreamOptions{
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
		Tty:    opts.TTY,
	}

	if err = executor.Stream(streamOptions); err != nil {
		return merry.Prependf(err, "exec in pod '%s/%s' failed", namespace, podName)
	}

	return nil
}

// ExecCaptured runs a non-interactive command and returns its combined
// output as a string.
func (e *Engine) ExecCaptured(
	ctx context.Context,
	namespace, podName, container string,
	command []string,
) (string, error) {
	var output bytes.Buffer

	err := e.ExecInPod(ctx, namespace, podName, ExecOptions{
		Container: container,
		Command:   command,
		Stdout:    &output,
		Stderr:    &output,
	})
	if err != nil {
		return output.String(), err
	}

	return output.String(), nil
}

// ExecInteractive attaches the current terminal to a command in a pod,
// e.g. a psql prompt.
func (e *Engine) ExecInteractive(
	ctx context.Context,
	namespace, podName, container string,
	command []string,
) error {
	return e.ExecInPod(ctx, namespace, podName, ExecOptions{
		Container: container,
		Command:   command,
		TTY:       true,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	})
}
