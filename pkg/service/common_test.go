package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
	"gitlab.com/dataworks/devstack/pkg/state"
)

func TestSummarize(t *testing.T) {
	cases := []struct {
		name     string
		ready    int
		total    int
		expected int
		state    ServiceState
	}{
		{"nothing deployed", 0, 0, 1, StateNotDeployed},
		{"all pods waiting", 0, 2, 2, StatePending},
		{"partially ready", 1, 2, 2, StateDegraded},
		{"fully ready", 2, 2, 2, StateReady},
		{"more than expected", 3, 3, 2, StateReady},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			status := summarize(testCase.ready, testCase.total, testCase.expected)
			assert.Equal(t, testCase.state, status.State)
			assert.Equal(t, testCase.ready, status.ReadyPods)
			assert.Equal(t, testCase.total, status.TotalPods)
		})
	}
}

func testState(clientSet *fake.Clientset) *state.State {
	return &state.State{
		Settings: devconfig.DefaultSettings(),
		Engine:   kubeengine.CreateEngineWithClient(clientSet),
		NodeIP:   "192.168.49.2",
	}
}

func servicePod(name, namespace string, labels map[string]string, ready bool) *v1.Pod {
	condition := v1.ConditionFalse
	if ready {
		condition = v1.ConditionTrue
	}

	return &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: labels},
		Status: v1.PodStatus{
			Phase:      v1.PodRunning,
			Conditions: []v1.PodCondition{{Type: v1.PodReady, Status: condition}},
		},
	}
}

func TestStatusAgainstCluster(t *testing.T) {
	settings := devconfig.DefaultSettings()
	labels := map[string]string{"app": "postgres"}

	clientSet := fake.NewSimpleClientset(
		servicePod("postgres-0", settings.Namespace, labels, true),
	)

	st := testState(clientSet)
	svc := newPostgresService()

	status, err := svc.Status(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, StateReady, status.State)
	assert.Equal(t, 1, status.ReadyPods)
	assert.Equal(t, 1, status.TotalPods)
}

func TestStatusNotDeployed(t *testing.T) {
	st := testState(fake.NewSimpleClientset())

	status, err := newMongoService().Status(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, StateNotDeployed, status.State)
}

func TestURLsFromNodePorts(t *testing.T) {
	settings := devconfig.DefaultSettings()

	clientSet := fake.NewSimpleClientset(&v1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "minio", Namespace: settings.Namespace},
		Spec: v1.ServiceSpec{
			Type: v1.ServiceTypeNodePort,
			Ports: []v1.ServicePort{
				{Name: "api", Port: 9000, NodePort: 30900},
				{Name: "console", Port: 9001, NodePort: 30901},
			},
		},
	})

	st := testState(clientSet)

	urls, err := newMinioService().URLs(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "api", urls[0].Name)
	assert.Equal(t, "http://192.168.49.2:30900", urls[0].URL)
	assert.Equal(t, "http://192.168.49.2:30901", urls[1].URL)
}

func TestFirstPodPrefersStableReplica(t *testing.T) {
	settings := devconfig.DefaultSettings()
	labels := map[string]string{"app": "redpanda"}

	clientSet := fake.NewSimpleClientset(
		servicePod("redpanda-1", settings.Namespace, labels, true),
		servicePod("redpanda-0", settings.Namespace, labels, true),
	)

	st := testState(clientSet)
	svc := newRedpandaService()

	pod, err := svc.firstPod(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "redpanda-0", pod.Name)
}

func TestFirstPodWithoutDeployment(t *testing.T) {
	st := testState(fake.NewSimpleClientset())

	_, err := newZincService().firstPod(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is it deployed")
}

func TestRenderStatusTable(t *testing.T) {
	settings := devconfig.DefaultSettings()
	labels := map[string]string{"app": "postgres"}

	clientSet := fake.NewSimpleClientset(
		servicePod("postgres-0", settings.Namespace, labels, true),
		&v1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "postgres", Namespace: settings.Namespace},
			Spec: v1.ServiceSpec{
				Type:  v1.ServiceTypeNodePort,
				Ports: []v1.ServicePort{{Name: "postgres", Port: 5432, NodePort: 30432}},
			},
		},
	)

	st := testState(clientSet)

	rendered := RenderStatusTable(context.Background(), st,
		[]Service{newPostgresService(), newMongoService()})

	assert.Contains(t, rendered, "SERVICE")
	assert.Contains(t, rendered, "postgres")
	assert.Contains(t, rendered, "ready")
	assert.Contains(t, rendered, "postgres://192.168.49.2:30432")
	assert.Contains(t, rendered, string(StateNotDeployed))

	// rows come out sorted by name
	assert.Less(t, strings.Index(rendered, "mongodb"), strings.Index(rendered, "postgres"))
}

// A deployed service whose Service object is gone still gets a row, with
// the lookup failure visible instead of a silently empty URL column.
func TestRenderStatusTableSurfacesURLErrors(t *testing.T) {
	settings := devconfig.DefaultSettings()
	labels := map[string]string{"app": "postgres"}

	clientSet := fake.NewSimpleClientset(
		servicePod("postgres-0", settings.Namespace, labels, true),
	)

	st := testState(clientSet)

	rendered := RenderStatusTable(context.Background(), st, []Service{newPostgresService()})

	assert.Contains(t, rendered, string(StateReady))
	assert.Contains(t, rendered, "error:")
}

func TestFormatURLs(t *testing.T) {
	formatted := formatURLs([]AccessURL{
		{Name: "api", URL: "http://192.168.49.2:30900"},
		{Name: "console", URL: "http://192.168.49.2:30901"},
	})

	assert.Equal(t,
		"api=http://192.168.49.2:30900 console=http://192.168.49.2:30901",
		formatted)
}
