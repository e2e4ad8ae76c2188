package kubeengine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	v1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/kubectl/pkg/scheme"
	k8sYaml "sigs.k8s.io/yaml"

	"gitlab.com/dataworks/devstack/pkg/tools"
)

// ToEngineObject unmarshals manifest bytes into objectType, which should
// match one of the kubernetes Kinds, e.g. Pod, Deployment, Namespace.
func ToEngineObject(manifest []byte, objectType interface{}) error {
	if err := k8sYaml.Unmarshal(manifest, objectType); err != nil {
		return merry.Prepend(
			err,
			fmt.Sprintf(
				"failed to unmarshal manifest to kind %s",
				reflect.TypeOf(objectType),
			),
		)
	}

	return nil
}

// DecodeManifest turns raw YAML into the typed object its Kind declares.
func DecodeManifest(manifest []byte) (runtime.Object, error) {
	object, _, err := scheme.Codecs.UniversalDeserializer().Decode(manifest, nil, nil)
	if err != nil {
		return nil, merry.Prepend(err, "failed to decode manifest")
	}

	return object, nil
}

// ApplyManifest decodes manifest and creates the object in namespace,
// updating it when it already exists. The supported Kind set covers
// everything the service catalog ships.
func (e *Engine) ApplyManifest(ctx context.Context, namespace string, manifest []byte) error {
	object, err := DecodeManifest(manifest)
	if err != nil {
		return err
	}

	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for apply")
	}

	return applyObject(ctx, clientSet, namespace, object)
}

// DeleteManifest removes the object a manifest describes. Absent objects
// are not an error: remove has to be idempotent.
func (e *Engine) DeleteManifest(ctx context.Context, namespace string, manifest []byte) error {
	object, err := DecodeManifest(manifest)
	if err != nil {
		return err
	}

	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for delete")
	}

	if err = deleteObject(ctx, clientSet, namespace, object); err != nil {
		if k8serrors.IsNotFound(err) {
			return nil
		}

		return merry.Prepend(err, "failed to delete object")
	}

	return nil
}

// ApplyManifestWithRetry wraps ApplyManifest in the standard bounded
// retry used for freshly started API servers.
func (e *Engine) ApplyManifestWithRetry(ctx context.Context, namespace, tag string, manifest []byte) error {
	return tools.Retry(
		fmt.Sprintf("apply %s", tag),
		func() error {
			return e.ApplyManifest(ctx, namespace, manifest)
		},
		tools.RetryStandardRetryCount,
		tools.RetryStandardWaitingTime,
	)
}

//nolint:cyclop // one branch per supported Kind
func applyObject(
	ctx context.Context,
	clientSet kubernetes.Interface,
	namespace string,
	object runtime.Object,
) error {
	createOptions := metav1.CreateOptions{FieldManager: FieldManager}
	updateOptions := metav1.UpdateOptions{FieldManager: FieldManager}

	var err error

	switch typed := object.(type) {
	case *v1.Namespace:
		_, err = clientSet.CoreV1().Namespaces().Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			err = nil
		}
	case *v1.ConfigMap:
		_, err = clientSet.CoreV1().ConfigMaps(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			_, err = clientSet.CoreV1().ConfigMaps(namespace).Update(ctx, typed, updateOptions)
		}
	case *v1.Secret:
		_, err = clientSet.CoreV1().Secrets(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			_, err = clientSet.CoreV1().Secrets(namespace).Update(ctx, typed, updateOptions)
		}
	case *v1.Service:
		_, err = clientSet.CoreV1().Services(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			// Service clusterIP is immutable, keep the live object
			llog.Debugf("service '%s' already exists, left as is", typed.Name)
			err = nil
		}
	case *v1.ServiceAccount:
		_, err = clientSet.CoreV1().ServiceAccounts(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			err = nil
		}
	case *v1.PersistentVolumeClaim:
		_, err = clientSet.CoreV1().PersistentVolumeClaims(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			// PVC spec is immutable after binding
			err = nil
		}
	case *appsv1.Deployment:
		_, err = clientSet.AppsV1().Deployments(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			_, err = clientSet.AppsV1().Deployments(namespace).Update(ctx, typed, updateOptions)
		}
	case *appsv1.StatefulSet:
		_, err = clientSet.AppsV1().StatefulSets(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			_, err = clientSet.AppsV1().StatefulSets(namespace).Update(ctx, typed, updateOptions)
		}
	case *batchv1.Job:
		_, err = clientSet.BatchV1().Jobs(namespace).Create(ctx, typed, createOptions)
		if k8serrors.IsAlreadyExists(err) {
			// Job spec is immutable, a finished one has to be deleted first
			err = nil
		}
	default:
		return merry.Errorf("unsupported object kind %s", reflect.TypeOf(object))
	}

	if err != nil {
		return merry.Prepend(err, "failed to apply object")
	}

	return nil
}

//nolint:cyclop // one branch per supported Kind
func deleteObject(
	ctx context.Context,
	clientSet kubernetes.Interface,
	namespace string,
	object runtime.Object,
) error {
	deleteOptions := GenerateDefaultDeleteOptions()

	switch typed := object.(type) {
	case *v1.Namespace:
		return clientSet.CoreV1().Namespaces().Delete(ctx, typed.Name, deleteOptions)
	case *v1.ConfigMap:
		return clientSet.CoreV1().ConfigMaps(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *v1.Secret:
		return clientSet.CoreV1().Secrets(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *v1.Service:
		return clientSet.CoreV1().Services(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *v1.ServiceAccount:
		return clientSet.CoreV1().ServiceAccounts(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *v1.PersistentVolumeClaim:
		return clientSet.CoreV1().PersistentVolumeClaims(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *appsv1.Deployment:
		return clientSet.AppsV1().Deployments(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *appsv1.StatefulSet:
		return clientSet.AppsV1().StatefulSets(namespace).Delete(ctx, typed.Name, deleteOptions)
	case *batchv1.Job:
		return clientSet.BatchV1().Jobs(namespace).Delete(ctx, typed.Name, deleteOptions)
	default:
		return merry.Errorf("unsupported object kind %s", reflect.TypeOf(object))
	}
}

// ScaleDeployment sets the replica count of an existing Deployment.
func (e *Engine) ScaleDeployment(ctx context.Context, namespace, name string, replicas int32) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for scale")
	}

	deployment, err := clientSet.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return merry.Prependf(err, "failed to get deployment '%s'", name)
	}

	deployment.Spec.Replicas = &replicas

	_, err = clientSet.AppsV1().Deployments(namespace).Update(ctx, deployment,
		metav1.UpdateOptions{FieldManager: FieldManager})
	if err != nil {
		return merry.Prependf(err, "failed to scale deployment '%s' to %d", name, replicas)
	}

	return nil
}

// GenerateDefaultDeleteOptions returns delete options with background
// propagation, matching what `kubectl delete` does by default.
func GenerateDefaultDeleteOptions() metav1.DeleteOptions {
	propagationPolicy := metav1.DeletePropagationBackground

	return metav1.DeleteOptions{
		PropagationPolicy: &propagationPolicy,
	}
}

// EnsureNamespace creates the namespace when missing.
func (e *Engine) EnsureNamespace(ctx context.Context, name string) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for namespace")
	}

	namespace := &v1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{"app.kubernetes.io/managed-by": FieldManager},
		},
	}

	_, err = clientSet.CoreV1().Namespaces().Create(ctx, namespace,
		metav1.CreateOptions{FieldManager: FieldManager})
	if err != nil && !k8serrors.IsAlreadyExists(err) {
		return merry.Prependf(err, "failed to create namespace '%s'", name)
	}

	return nil
}

func (e *Engine) DeleteNamespace(ctx context.Context, name string) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for namespace")
	}

	err = clientSet.CoreV1().Namespaces().Delete(ctx, name, GenerateDefaultDeleteOptions())
	if err != nil && !k8serrors.IsNotFound(err) {
		return merry.Prependf(err, "failed to delete namespace '%s'", name)
	}

	return nil
}
