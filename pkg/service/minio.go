package service

import (
	"context"

	"github.com/ansel1/merry"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	minioPodPort    = 9000
	minioLocalPort  = 19000
	minioDefaultKey = "minioadmin"
)

type minioService struct {
	commonService
}

func newMinioService() *minioService {
	return &minioService{
		commonService: commonService{
			name:        "minio",
			description: "MinIO S3-compatible object storage",
			selector:    "app=minio",
			expectPods:  1,
			serviceName: "minio",
			container:   "minio",
			ports: []portSpec{
				{name: "api", scheme: "http"},
				{name: "console", scheme: "http"},
			},
		},
	}
}

func (ms *minioService) Deploy(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
		return err
	}

	if _, err = ensureCredentials(ctx, st, ms.name, Credentials{
		User:     minioDefaultKey,
		Password: minioDefaultKey,
	}); err != nil {
		return err
	}

	if err = ms.deployManifests(ctx, st); err != nil {
		return err
	}

	if err = ms.Health(ctx, st); err != nil {
		return merry.Prepend(err, "minio pods are ready but the API does not answer")
	}

	return nil
}

func (ms *minioService) Remove(ctx context.Context, st *state.State) error {
	if err := ms.removeManifests(ctx, st); err != nil {
		return err
	}

	return deleteCredentials(ctx, st, ms.name)
}

func (ms *minioService) Health(ctx context.Context, st *state.State) error {
	return ms.forwardAndProbe(ctx, st, minioLocalPort, minioPodPort, func(port int) error {
		return httpHealthy(ctx, localProbeURL(port, "/minio/health/live"))
	})
}

func (ms *minioService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "mc [-- mc-args...]",
			Short: "Run the MinIO client against the local deployment",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				command := append([]string{"mc"}, args...)

				return ms.execInteractive(ctx, st, command)
			},
		},
		{
			Use:   "mb <bucket>",
			Short: "Create a bucket",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("mb expects exactly one bucket name")
				}

				output, err := ms.execCaptured(ctx, st,
					[]string{"mc", "mb", "local/" + args[0]})
				if err != nil {
					return merry.Prependf(err, "bucket creation failed: %s", output)
				}

				return nil
			},
		},
	}
}
