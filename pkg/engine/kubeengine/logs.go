package kubeengine

import (
	"context"
	"io"

	"github.com/ansel1/merry"
	v1 "k8s.io/api/core/v1"
)

// PodLogs streams logs of one pod container into out, optionally
// following like `kubectl logs -f`.
func (e *Engine) PodLogs(
	ctx context.Context,
	namespace, podName, container string,
	follow bool,
	tailLines int64,
	out io.Writer,
) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for logs")
	}

	logOptions := &v1.PodLogOptions{
		Container: container,
		Follow:    follow,
	}
	if tailLines > 0 {
		logOptions.TailLines = &tailLines
	}

	logStream, err := clientSet.CoreV1().Pods(namespace).
		GetLogs(podName, logOptions).
		Stream(ctx)
	if err != nil {
		return merry.Prependf(err, "failed to open log stream of pod '%s/%s'", namespace, podName)
	}

	defer func() { _ = logStream.Close() }()

	if _, err = io.Copy(out, logStream); err != nil {
		return merry.Prepend(err, "failed to copy log stream")
	}

	return nil
}
