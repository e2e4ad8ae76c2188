package kubeengine

import (
	"net/url"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
)

// Engine wraps the typed Kubernetes client used by every service
// operation: manifest apply/delete, readiness waits, pod exec, logs
// and port-forwarding.
type Engine struct {
	kubeconfigPath string
	contextName    string

	clientSet  kubernetes.Interface
	restConfig *rest.Config
}

func CreateEngine(settings *devconfig.Settings) (e *Engine, err error) {
	e = &Engine{
		kubeconfigPath: settings.KubeconfigPath,
		contextName:    settings.Profile,
	}

	llog.Debugf("kubernetes engine init with kubeconfig '%s', context '%s'",
		e.kubeconfigPath, e.contextName)

	return e, nil
}

// CreateEngineWithClient builds an engine around an existing client.
// Exec and port-forward need a rest.Config and stay unavailable; the
// fake clientset path is what the tests use.
func CreateEngineWithClient(clientSet kubernetes.Interface) *Engine {
	return &Engine{clientSet: clientSet}
}

func (e *Engine) GetKubeConfig() (*rest.Config, error) {
	if e.restConfig != nil {
		return e.restConfig, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	loadingRules.ExplicitPath = e.kubeconfigPath

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{CurrentContext: e.contextName},
	)

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, merry.Prependf(err, "failed to load kubeconfig '%s'", e.kubeconfigPath)
	}

	e.restConfig = restConfig

	return restConfig, nil
}

func (e *Engine) GetClientSet() (kubernetes.Interface, error) {
	if e.clientSet != nil {
		return e.clientSet, nil
	}

	restConfig, err := e.GetKubeConfig()
	if err != nil {
		return nil, merry.Prepend(err, "failed to get kubeconfig for clientSet")
	}

	clientSet, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, merry.Prepend(err, "failed to create clientSet")
	}

	e.clientSet = clientSet

	return clientSet, nil
}

// GetResourceURL builds the REST URL for a pod subresource, e.g. exec
// or portforward.
func (e *Engine) GetResourceURL(resource, namespace, name, subresource string) (*url.URL, error) {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return nil, merry.Prepend(err, "failed to get client set")
	}

	resourceURL := clientSet.CoreV1().RESTClient().Post().
		Resource(resource).
		Namespace(namespace).
		Name(name).
		SubResource(subresource).URL()

	return resourceURL, nil
}
