package kubeengine

import (
	"context"
	"fmt"

	"github.com/ansel1/merry"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// NodePort returns the node port assigned to the named port of a
// NodePort service.
func (e *Engine) NodePort(ctx context.Context, namespace, serviceName, portName string) (int32, error) {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return 0, merry.Prepend(err, "failed to get clientset for service lookup")
	}

	service, err := clientSet.CoreV1().Services(namespace).Get(ctx, serviceName, metav1.GetOptions{})
	if err != nil {
		return 0, merry.Prependf(err, "failed to get service '%s/%s'", namespace, serviceName)
	}

	if service.Spec.Type != v1.ServiceTypeNodePort {
		return 0, merry.Errorf("service '%s/%s' is not of type NodePort", namespace, serviceName)
	}

	for _, port := range service.Spec.Ports {
		if port.Name == portName || (portName == "" && len(service.Spec.Ports) == 1) {
			if port.NodePort == 0 {
				return 0, merry.Errorf(
					"service '%s/%s' port '%s' has no node port assigned",
					namespace, serviceName, portName)
			}

			return port.NodePort, nil
		}
	}

	return 0, merry.Errorf("service '%s/%s' has no port named '%s'", namespace, serviceName, portName)
}

// NodePortURL resolves the externally reachable URL of a NodePort
// service port, nodeIP being the minikube node address.
func (e *Engine) NodePortURL(
	ctx context.Context,
	nodeIP, namespace, serviceName, portName, portScheme string,
) (string, error) {
	nodePort, err := e.NodePort(ctx, namespace, serviceName, portName)
	if err != nil {
		return "", err
	}

	if portScheme == "" {
		portScheme = "http"
	}

	return fmt.Sprintf("%s://%s:%d", portScheme, nodeIP, nodePort), nil
}
