package service

import (
	"context"

	"gitlab.com/dataworks/devstack/pkg/state"
)

// ServiceState is the coarse answer `devstack <service> status` prints.
type ServiceState string

const (
	StateNotDeployed ServiceState = "not deployed"
	StatePending     ServiceState = "pending"
	StateDegraded    ServiceState = "degraded"
	StateReady       ServiceState = "ready"
)

// Status reports pod-level readiness of one service.
type Status struct {
	State     ServiceState
	ReadyPods int
	TotalPods int
}

// AccessURL is one externally reachable endpoint of a service,
// resolved from the minikube node IP and the service NodePort.
type AccessURL struct {
	Name string
	URL  string
}

// Service is one entry of the catalog: a third-party system deployed
// onto the local cluster from embedded manifests or a helm chart.
type Service interface {
	Name() string
	Description() string

	Deploy(ctx context.Context, st *state.State) error
	Remove(ctx context.Context, st *state.State) error
	Restart(ctx context.Context, st *state.State) error
	Status(ctx context.Context, st *state.State) (Status, error)
	URLs(ctx context.Context, st *state.State) ([]AccessURL, error)
	Logs(ctx context.Context, st *state.State, follow bool, tail int64) error
}

// ExecCommand is a service-native CLI proxied through pod exec,
// e.g. psql, mongosh, rpk.
type ExecCommand struct {
	Use   string
	Short string

	Run func(ctx context.Context, st *state.State, args []string) error
}

// Execer is implemented by services that proxy native CLI commands.
type Execer interface {
	ExecCommands() []ExecCommand
}

// HealthChecker is implemented by services with a protocol-level probe
// beyond pod readiness (SQL ping, HTTP health endpoint, SMTP banner).
type HealthChecker interface {
	Health(ctx context.Context, st *state.State) error
}
