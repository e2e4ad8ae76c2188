package kubeengine

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"

	"gitlab.com/dataworks/devstack/pkg/tools"
)

// OpenPortForward opens a port-forward tunnel to the pod behind reqURL
// on behalf of caller. It returns once the tunnel reports ready; the
// forward runs until stopPortForward is closed.
func (e *Engine) OpenPortForward(
	caller string,
	ports []string,
	reqURL *url.URL,
	stopPortForward chan struct{},
) (err error) {
	llog.Debugf("opening port-forward for %s, with url `%s`", caller, reqURL.String())

	kubeConfig, err := e.GetKubeConfig()
	if err != nil {
		return merry.Prepend(err, "failed to get kube config")
	}

	httpTransport, upgrader, err := spdy.RoundTripperFor(kubeConfig)
	if err != nil {
		return merry.Prepend(err, "failed to create spdy transport for port-forward")
	}

	logPath := filepath.Join(os.TempDir(), fmt.Sprintf("devstack-port-forward-%s.log", caller))

	portForwardLog, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return merry.Prepend(err, "failed to create or open log file for port-forward")
	}

	dialer := spdy.NewDialer(upgrader,
		&http.Client{Transport: httpTransport},
		http.MethodPost, reqURL)

	readyPortForward := make(chan struct{})

	portForward, err := portforward.New(dialer, ports,
		stopPortForward, readyPortForward, portForwardLog, portForwardLog)
	if err != nil {
		return merry.Prepend(err, "failed to get port-forwarder")
	}

	portForwardingError := make(chan error)

	go func() {
		if forwardErr := portForward.ForwardPorts(); forwardErr != nil {
			portForwardingError <- merry.Prepend(forwardErr, "failed to open port-forward")
		}
	}()

	select {
	case <-readyPortForward:
		return nil

	case err = <-portForwardingError:
		return err
	}
}

// ForwardToPod opens a tunnel from a free local port to podPort of the
// named pod. When localPort is busy the next ports are probed, the way
// the monitoring forward always did.
func (e *Engine) ForwardToPod(
	namespace, podName string,
	localPort, podPort int,
) (chosenPort int, stop chan struct{}, err error) {
	chosenPort = localPort
	for !tools.IsLocalPortFree(chosenPort) {
		llog.Infof("local port %d is busy, trying %d", chosenPort, chosenPort+1)
		chosenPort++

		if chosenPort >= localPort+tools.RetryStandardRetryCount {
			return 0, nil, merry.Errorf(
				"ports %d-%d are not available", localPort, chosenPort)
		}
	}

	reqURL, err := e.GetResourceURL(
		ResourcePodName, namespace, podName, SubresourcePortForwarding)
	if err != nil {
		return 0, nil, err
	}

	stop = make(chan struct{})

	err = e.OpenPortForward(
		podName,
		[]string{fmt.Sprintf("%d:%d", chosenPort, podPort)},
		reqURL,
		stop,
	)
	if err != nil {
		return 0, nil, merry.Prependf(err, "failed to start port-forward for '%s'", podName)
	}

	llog.Debugf("port-forward %d -> %s:%d started", chosenPort, podName, podPort)

	return chosenPort, stop, nil
}
