package service

import (
	"context"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	dexPodPort   = 5556
	dexLocalPort = 15556
)

type dexService struct {
	commonService
}

func newDexService() *dexService {
	return &dexService{
		commonService: commonService{
			name:        "dex",
			description: "Dex OpenID Connect identity provider",
			selector:    "app=dex",
			expectPods:  1,
			serviceName: "dex",
			container:   "dex",
			ports: []portSpec{
				{name: "http", scheme: "http"},
			},
		},
	}
}

func (ds *dexService) Deploy(ctx context.Context, st *state.State) error {
	return ds.deployManifests(ctx, st)
}

func (ds *dexService) Remove(ctx context.Context, st *state.State) error {
	return ds.removeManifests(ctx, st)
}

func (ds *dexService) Health(ctx context.Context, st *state.State) error {
	return ds.forwardAndProbe(ctx, st, dexLocalPort, dexPodPort, func(port int) error {
		return httpHealthy(ctx, localProbeURL(port, "/dex/.well-known/openid-configuration"))
	})
}
