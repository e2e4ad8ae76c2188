package kubeengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func readyPod(name, namespace string, labels map[string]string) *v1.Pod {
	return &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: labels},
		Status: v1.PodStatus{
			Phase: v1.PodRunning,
			Conditions: []v1.PodCondition{
				{Type: v1.PodReady, Status: v1.ConditionTrue},
			},
		},
	}
}

func pendingPod(name, namespace string, labels map[string]string) *v1.Pod {
	return &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: labels},
		Status:     v1.PodStatus{Phase: v1.PodPending},
	}
}

func TestWaitPodRejectsTinyBudget(t *testing.T) {
	engine := CreateEngineWithClient(fake.NewSimpleClientset())

	_, err := engine.WaitPod(context.Background(), "pod", "ns", PodWaitingWaitCreation, time.Second)
	assert.Error(t, err)
}

func TestWaitPodReturnsRunningPod(t *testing.T) {
	clientSet := fake.NewSimpleClientset(readyPod("pg-0", "devstack", nil))
	engine := CreateEngineWithClient(clientSet)

	pod, err := engine.WaitPod(context.Background(), "pg-0", "devstack",
		PodWaitingNotWaitCreation, PodWaitingTime)
	require.NoError(t, err)
	assert.Equal(t, "pg-0", pod.Name)
}

func TestCountReadyPods(t *testing.T) {
	labels := map[string]string{"app": "redpanda"}
	clientSet := fake.NewSimpleClientset(
		readyPod("redpanda-0", "devstack", labels),
		pendingPod("redpanda-1", "devstack", labels),
	)
	engine := CreateEngineWithClient(clientSet)

	ready, total, err := engine.CountReadyPods(context.Background(), "devstack", "app=redpanda")
	require.NoError(t, err)
	assert.Equal(t, 1, ready)
	assert.Equal(t, 2, total)
}

func TestWaitPodsBySelectorAlreadyReady(t *testing.T) {
	labels := map[string]string{"app": "minio"}
	clientSet := fake.NewSimpleClientset(readyPod("minio-0", "devstack", labels))
	engine := CreateEngineWithClient(clientSet)

	err := engine.WaitPodsBySelector(context.Background(), "devstack", "app=minio", 1, time.Minute)
	assert.NoError(t, err)
}

func TestWaitDeploymentReady(t *testing.T) {
	replicas := int32(2)
	deployment := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "minio", Namespace: "devstack", Generation: 1},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status: appsv1.DeploymentStatus{
			ObservedGeneration: 1,
			ReadyReplicas:      2,
			UpdatedReplicas:    2,
		},
	}
	engine := CreateEngineWithClient(fake.NewSimpleClientset(deployment))

	err := engine.WaitDeploymentReady(context.Background(), "devstack", "minio", time.Minute)
	assert.NoError(t, err)
}

func TestWaitStatefulSetReady(t *testing.T) {
	statefulSet := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "postgres", Namespace: "devstack", Generation: 3},
		Status: appsv1.StatefulSetStatus{
			ObservedGeneration: 3,
			ReadyReplicas:      1,
		},
	}
	engine := CreateEngineWithClient(fake.NewSimpleClientset(statefulSet))

	err := engine.WaitStatefulSetReady(context.Background(), "devstack", "postgres", time.Minute)
	assert.NoError(t, err)
}

func TestWaitInterruptedByContext(t *testing.T) {
	engine := CreateEngineWithClient(fake.NewSimpleClientset())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.WaitPodsBySelector(ctx, "devstack", "app=spark", 1, time.Minute)
	assert.Error(t, err)
}

func TestDeletePodsBySelector(t *testing.T) {
	labels := map[string]string{"app": "dex"}
	clientSet := fake.NewSimpleClientset(readyPod("dex-abc", "devstack", labels))
	engine := CreateEngineWithClient(clientSet)

	require.NoError(t, engine.DeletePodsBySelector(context.Background(), "devstack", "app=dex"))

	pods, err := engine.ListPods(context.Background(), "devstack", "app=dex")
	require.NoError(t, err)
	assert.Empty(t, pods)
}
