package service

import (
	"context"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	dremioPodPort   = 9047
	dremioLocalPort = 19047
)

type dremioService struct {
	commonService
}

func newDremioService() *dremioService {
	return &dremioService{
		commonService: commonService{
			name:        "dremio",
			description: "Dremio data lakehouse query engine",
			selector:    "app=dremio",
			expectPods:  1,
			serviceName: "dremio",
			container:   "dremio",
			ports: []portSpec{
				{name: "web", scheme: "http"},
				{name: "client", scheme: "http"},
			},
		},
	}
}

func (ds *dremioService) Deploy(ctx context.Context, st *state.State) error {
	return ds.deployManifests(ctx, st)
}

func (ds *dremioService) Remove(ctx context.Context, st *state.State) error {
	return ds.removeManifests(ctx, st)
}

func (ds *dremioService) Health(ctx context.Context, st *state.State) error {
	return ds.forwardAndProbe(ctx, st, dremioLocalPort, dremioPodPort, func(port int) error {
		return httpHealthy(ctx, localProbeURL(port, "/apiv2/server_status"))
	})
}
