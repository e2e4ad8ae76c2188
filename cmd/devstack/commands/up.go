package commands

import (
	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/service"
	"gitlab.com/dataworks/devstack/pkg/state"
)

func newUpCommand(st *state.State) *cobra.Command {
	var skipCluster bool

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Start the cluster and deploy every enabled service",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			enabled, err := service.Enabled(st.Settings)
			if err != nil {
				llog.Fatalf("up failed: %v", err)
			}

			if !skipCluster {
				if err = st.Cluster.Start(ctx); err != nil {
					llog.Fatalf("cluster start failed: %v", err)
				}
			}

			engine, err := st.EnsureEngine()
			if err != nil {
				llog.Fatalf("up failed: %v", err)
			}

			if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
				llog.Fatalf("up failed: %v", err)
			}

			printer := service.CreateStatusPrinter(enabled)

			for _, svc := range enabled {
				llog.Infof("deploying %s", svc.Name())

				if err = svc.Deploy(ctx, st); err != nil {
					llog.Fatalf("%s deploy failed: %v", svc.Name(), err)
				}

				status, statusErr := svc.Status(ctx, st)
				if statusErr != nil {
					llog.Fatalf("%s status failed: %v", svc.Name(), statusErr)
				}

				urls, _ := svc.URLs(ctx, st)
				printer.UpdateRow(svc.Name(), status, urls)
			}

			llog.Infof("stack is up: %d service(s) deployed", len(enabled))
		},
	}

	upCmd.Flags().BoolVar(&skipCluster, "skip-cluster", false,
		"assume the cluster is already running")

	return upCmd
}
