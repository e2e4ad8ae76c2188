package kubeengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

const deploymentManifest = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: minio
  labels:
    app: minio
spec:
  replicas: 1
  selector:
    matchLabels:
      app: minio
  template:
    metadata:
      labels:
        app: minio
    spec:
      containers:
        - name: minio
          image: minio/minio:latest
`

const serviceManifest = `
apiVersion: v1
kind: Service
metadata:
  name: minio
spec:
  type: NodePort
  selector:
    app: minio
  ports:
    - name: api
      port: 9000
      nodePort: 30900
`

func TestDecodeManifest(t *testing.T) {
	object, err := DecodeManifest([]byte(deploymentManifest))
	require.NoError(t, err)

	deployment, ok := object.(*appsv1.Deployment)
	require.True(t, ok)
	assert.Equal(t, "minio", deployment.Name)
}

func TestDecodeManifestRejectsGarbage(t *testing.T) {
	_, err := DecodeManifest([]byte("not: a: manifest: at all"))
	assert.Error(t, err)
}

func TestApplyManifestCreatesAndUpdates(t *testing.T) {
	clientSet := fake.NewSimpleClientset()
	engine := CreateEngineWithClient(clientSet)
	ctx := context.Background()

	require.NoError(t, engine.ApplyManifest(ctx, "devstack", []byte(deploymentManifest)))

	deployment, err := clientSet.AppsV1().Deployments("devstack").
		Get(ctx, "minio", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "minio/minio:latest", deployment.Spec.Template.Spec.Containers[0].Image)

	// second apply must update in place, not fail on AlreadyExists
	require.NoError(t, engine.ApplyManifest(ctx, "devstack", []byte(deploymentManifest)))
}

func TestDeleteManifestIdempotent(t *testing.T) {
	engine := CreateEngineWithClient(fake.NewSimpleClientset())
	ctx := context.Background()

	require.NoError(t, engine.ApplyManifest(ctx, "devstack", []byte(serviceManifest)))
	require.NoError(t, engine.DeleteManifest(ctx, "devstack", []byte(serviceManifest)))

	// deleting the already-absent object must not error
	assert.NoError(t, engine.DeleteManifest(ctx, "devstack", []byte(serviceManifest)))
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	clientSet := fake.NewSimpleClientset()
	engine := CreateEngineWithClient(clientSet)
	ctx := context.Background()

	require.NoError(t, engine.EnsureNamespace(ctx, "devstack"))
	require.NoError(t, engine.EnsureNamespace(ctx, "devstack"))

	namespace, err := clientSet.CoreV1().Namespaces().Get(ctx, "devstack", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, FieldManager, namespace.Labels["app.kubernetes.io/managed-by"])
}

func TestNodePortLookup(t *testing.T) {
	service := &v1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "minio", Namespace: "devstack"},
		Spec: v1.ServiceSpec{
			Type: v1.ServiceTypeNodePort,
			Ports: []v1.ServicePort{
				{Name: "api", Port: 9000, NodePort: 30900},
				{Name: "console", Port: 9001, NodePort: 30901},
			},
		},
	}
	engine := CreateEngineWithClient(fake.NewSimpleClientset(service))
	ctx := context.Background()

	nodePort, err := engine.NodePort(ctx, "devstack", "minio", "console")
	require.NoError(t, err)
	assert.Equal(t, int32(30901), nodePort)

	url, err := engine.NodePortURL(ctx, "192.168.49.2", "devstack", "minio", "api", "")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.49.2:30900", url)

	_, err = engine.NodePort(ctx, "devstack", "minio", "missing")
	assert.Error(t, err)
}

func TestNodePortRejectsClusterIPService(t *testing.T) {
	service := &v1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "internal", Namespace: "devstack"},
		Spec: v1.ServiceSpec{
			Type:  v1.ServiceTypeClusterIP,
			Ports: []v1.ServicePort{{Name: "http", Port: 80}},
		},
	}
	engine := CreateEngineWithClient(fake.NewSimpleClientset(service))

	_, err := engine.NodePort(context.Background(), "devstack", "internal", "http")
	assert.Error(t, err)
}
