package service

import (
	"context"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	zincPodPort     = 4080
	zincLocalPort   = 14080
	zincDefaultUser = "admin"
	zincDefaultPass = "Complexpass#123"
)

type zincService struct {
	commonService
}

func newZincService() *zincService {
	return &zincService{
		commonService: commonService{
			name:        "zincsearch",
			description: "ZincSearch lightweight search engine",
			selector:    "app=zincsearch",
			expectPods:  1,
			serviceName: "zincsearch",
			container:   "zincsearch",
			ports: []portSpec{
				{name: "http", scheme: "http"},
			},
		},
	}
}

func (zs *zincService) Deploy(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
		return err
	}

	if _, err = ensureCredentials(ctx, st, zs.name, Credentials{
		User:     zincDefaultUser,
		Password: zincDefaultPass,
	}); err != nil {
		return err
	}

	return zs.deployManifests(ctx, st)
}

func (zs *zincService) Remove(ctx context.Context, st *state.State) error {
	if err := zs.removeManifests(ctx, st); err != nil {
		return err
	}

	return deleteCredentials(ctx, st, zs.name)
}

func (zs *zincService) Health(ctx context.Context, st *state.State) error {
	return zs.forwardAndProbe(ctx, st, zincLocalPort, zincPodPort, func(port int) error {
		return httpHealthy(ctx, localProbeURL(port, "/healthz"))
	})
}
