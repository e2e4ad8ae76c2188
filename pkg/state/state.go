package state

import (
	"context"

	"github.com/ansel1/merry"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
	"gitlab.com/dataworks/devstack/pkg/engine/minikube"
)

// State is the shared shell state threaded through every command:
// resolved settings, the cluster handle and the lazily created
// kubernetes engine.
type State struct {
	Settings *devconfig.Settings

	Cluster *minikube.Cluster
	Engine  *kubeengine.Engine

	// NodeIP is filled on first use and reused for every URL lookup.
	NodeIP string
}

func New(settings *devconfig.Settings) *State {
	return &State{
		Settings: settings,
		Cluster:  minikube.CreateCluster(settings),
	}
}

// EnsureEngine builds the kubernetes engine on first use so cluster
// lifecycle commands work without a reachable API server.
func (st *State) EnsureEngine() (*kubeengine.Engine, error) {
	if st.Engine != nil {
		return st.Engine, nil
	}

	engine, err := kubeengine.CreateEngine(st.Settings)
	if err != nil {
		return nil, merry.Prepend(err, "failed to create kubernetes engine")
	}

	st.Engine = engine

	return engine, nil
}

// ResolveNodeIP caches the minikube node address used in NodePort URLs.
func (st *State) ResolveNodeIP(ctx context.Context) (string, error) {
	if st.NodeIP != "" {
		return st.NodeIP, nil
	}

	nodeIP, err := st.Cluster.IP(ctx)
	if err != nil {
		return "", merry.Prepend(err, "failed to resolve cluster node ip")
	}

	st.NodeIP = nodeIP

	return nodeIP, nil
}
