package kubeengine

import (
	"context"
	"time"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	appsv1 "k8s.io/api/apps/v1"
	v1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WaitPod polls until the named pod reaches Running phase or waitTime is
// spent. With creationWait the loop also tolerates the pod not existing
// yet, e.g. right after a controller was applied.
func (e *Engine) WaitPod(
	ctx context.Context,
	podName, namespace string,
	creationWait bool,
	waitTime time.Duration,
) (*v1.Pod, error) {
	if waitTime < waitTimeQuantum {
		return nil, merry.Errorf(
			"wait time %v is less than polling quantum %v",
			waitTime, waitTimeQuantum,
		)
	}

	clientSet, err := e.GetClientSet()
	if err != nil {
		return nil, merry.Prepend(err, "failed to get clientset for pod waiting")
	}

	var targetPod *v1.Pod

	for waitTime > 0 {
		if err = ctx.Err(); err != nil {
			return nil, merry.Prepend(err, "pod waiting interrupted")
		}

		targetPod, err = clientSet.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})

		switch {
		case err != nil && creationWait && k8serrors.IsNotFound(err):
			llog.Debugf("WaitPod: pod '%s/%s' not created yet", namespace, podName)

		case err != nil:
			return nil, merry.Prependf(err, "failed to get pod '%s/%s'", namespace, podName)

		case targetPod.Status.Phase == v1.PodRunning:
			llog.Debugf("WaitPod: pod '%s/%s' is running", namespace, podName)

			return targetPod, nil

		default:
			llog.Infof("WaitPod: pod '%s' status: %v", podName, targetPod.Status.Phase)
		}

		waitTime -= waitTimeQuantum
		time.Sleep(waitTimeQuantum)
	}

	return nil, merry.Errorf("pod '%s/%s' did not reach Running state in time", namespace, podName)
}

// WaitPodsBySelector waits until at least minReady pods matching selector
// report Ready in their conditions.
func (e *Engine) WaitPodsBySelector(
	ctx context.Context,
	namespace, selector string,
	minReady int,
	waitTime time.Duration,
) error {
	for waitTime > 0 {
		if err := ctx.Err(); err != nil {
			return merry.Prepend(err, "pod waiting interrupted")
		}

		ready, total, err := e.CountReadyPods(ctx, namespace, selector)
		if err != nil {
			return err
		}

		if ready >= minReady {
			llog.Debugf("pods '%s': %d/%d ready", selector, ready, total)

			return nil
		}

		llog.Infof("waiting for pods '%s' in '%s': %d/%d ready",
			selector, namespace, ready, minReady)

		waitTime -= waitTimeQuantum
		time.Sleep(waitTimeQuantum)
	}

	return merry.Errorf(
		"pods matching '%s' in '%s' did not become ready in time", selector, namespace)
}

// CountReadyPods returns how many pods matching selector carry the Ready
// condition, plus the matched total.
func (e *Engine) CountReadyPods(
	ctx context.Context,
	namespace, selector string,
) (ready, total int, err error) {
	pods, err := e.ListPods(ctx, namespace, selector)
	if err != nil {
		return 0, 0, err
	}

	for i := range pods {
		if IsPodReady(&pods[i]) {
			ready++
		}
	}

	return ready, len(pods), nil
}

func IsPodReady(pod *v1.Pod) bool {
	if pod.Status.Phase != v1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == v1.PodReady && condition.Status == v1.ConditionTrue {
			return true
		}
	}

	return false
}

func (e *Engine) ListPods(ctx context.Context, namespace, selector string) ([]v1.Pod, error) {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return nil, merry.Prepend(err, "failed to get clientset for pod list")
	}

	podList, err := clientSet.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, merry.Prependf(err, "failed to list pods by selector '%s'", selector)
	}

	return podList.Items, nil
}

// DeletePodsBySelector deletes matching pods and lets their controller
// recreate them. This is what restart means for a managed workload.
func (e *Engine) DeletePodsBySelector(ctx context.Context, namespace, selector string) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for pod delete")
	}

	err = clientSet.CoreV1().Pods(namespace).DeleteCollection(
		ctx,
		GenerateDefaultDeleteOptions(),
		metav1.ListOptions{LabelSelector: selector},
	)
	if err != nil {
		return merry.Prependf(err, "failed to delete pods by selector '%s'", selector)
	}

	return nil
}

// WaitDeploymentReady polls a Deployment until status catches up with
// the requested replica count.
func (e *Engine) WaitDeploymentReady(
	ctx context.Context,
	namespace, name string,
	waitTime time.Duration,
) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for deployment waiting")
	}

	for waitTime > 0 {
		if err = ctx.Err(); err != nil {
			return merry.Prepend(err, "deployment waiting interrupted")
		}

		var deployment *appsv1.Deployment

		deployment, err = clientSet.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return merry.Prependf(err, "failed to get deployment '%s/%s'", namespace, name)
		}

		if deploymentReady(deployment) {
			return nil
		}

		llog.Infof("waiting for deployment '%s': %d/%d replicas ready",
			name, deployment.Status.ReadyReplicas, desiredReplicas(deployment.Spec.Replicas))

		waitTime -= waitTimeQuantum
		time.Sleep(waitTimeQuantum)
	}

	return merry.Errorf("deployment '%s/%s' did not become ready in time", namespace, name)
}

// WaitStatefulSetReady polls a StatefulSet the same way.
func (e *Engine) WaitStatefulSetReady(
	ctx context.Context,
	namespace, name string,
	waitTime time.Duration,
) error {
	clientSet, err := e.GetClientSet()
	if err != nil {
		return merry.Prepend(err, "failed to get clientset for statefulset waiting")
	}

	for waitTime > 0 {
		if err = ctx.Err(); err != nil {
			return merry.Prepend(err, "statefulset waiting interrupted")
		}

		var statefulSet *appsv1.StatefulSet

		statefulSet, err = clientSet.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return merry.Prependf(err, "failed to get statefulset '%s/%s'", namespace, name)
		}

		if statefulSetReady(statefulSet) {
			return nil
		}

		llog.Infof("waiting for statefulset '%s': %d/%d replicas ready",
			name, statefulSet.Status.ReadyReplicas, desiredReplicas(statefulSet.Spec.Replicas))

		waitTime -= waitTimeQuantum
		time.Sleep(waitTimeQuantum)
	}

	return merry.Errorf("statefulset '%s/%s' did not become ready in time", namespace, name)
}

func deploymentReady(deployment *appsv1.Deployment) bool {
	desired := desiredReplicas(deployment.Spec.Replicas)

	return deployment.Status.ObservedGeneration >= deployment.Generation &&
		deployment.Status.ReadyReplicas == desired &&
		deployment.Status.UpdatedReplicas == desired
}

func statefulSetReady(statefulSet *appsv1.StatefulSet) bool {
	desired := desiredReplicas(statefulSet.Spec.Replicas)

	return statefulSet.Status.ObservedGeneration >= statefulSet.Generation &&
		statefulSet.Status.ReadyReplicas == desired
}

func desiredReplicas(replicas *int32) int32 {
	if replicas == nil {
		return 1
	}

	return *replicas
}
