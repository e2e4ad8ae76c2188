package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
	"gitlab.com/dataworks/devstack/pkg/state"
)

func newClusterCommand(st *state.State) *cobra.Command {
	clusterCmd := &cobra.Command{
		Use:   "cluster [start|stop|delete|status|ip|mount]",
		Short: "Manage the local minikube cluster",
	}

	clusterCmd.AddCommand(
		newClusterStartCommand(st),
		newClusterStopCommand(st),
		newClusterDeleteCommand(st),
		newClusterStatusCommand(st),
		newClusterIPCommand(st),
		newClusterMountCommand(st),
	)

	return clusterCmd
}

func newClusterStartCommand(st *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the cluster with the configured resources",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := st.Cluster.Start(cmd.Context()); err != nil {
				llog.Fatalf("cluster start failed: %v", err)
			}
		},
	}
}

func newClusterStopCommand(st *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the cluster, keeping its state on disk",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := st.Cluster.Stop(cmd.Context()); err != nil {
				llog.Fatalf("cluster stop failed: %v", err)
			}
		},
	}
}

func newClusterDeleteCommand(st *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the cluster and everything deployed on it",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := st.Cluster.Delete(cmd.Context()); err != nil {
				llog.Fatalf("cluster delete failed: %v", err)
			}
		},
	}
}

func newClusterStatusCommand(st *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the host, kubelet and apiserver state",
		Run: func(cmd *cobra.Command, _ []string) {
			status, err := st.Cluster.Status(cmd.Context())
			if err != nil {
				llog.Fatalf("cluster status failed: %v", err)
			}

			fmt.Printf("host: %s\nkubelet: %s\napiserver: %s\n",
				status.Host, status.Kubelet, status.APIServer)
		},
	}
}

func newClusterIPCommand(st *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "ip",
		Short: "Print the cluster node address",
		Run: func(cmd *cobra.Command, _ []string) {
			nodeIP, err := st.Cluster.IP(cmd.Context())
			if err != nil {
				llog.Fatalf("cluster ip failed: %v", err)
			}

			fmt.Println(nodeIP)
		},
	}
}

func newClusterMountCommand(st *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "mount [source target]",
		Short: "Mount a host directory into the cluster node",
		Long: "Mount a host directory into the cluster node. Without arguments " +
			"the MOUNT_SOURCE and MOUNT_TARGET settings are used.",
		Args: cobra.MaximumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			source, target, err := resolveMountSpec(st.Settings, args)
			if err != nil {
				llog.Fatalf("mount failed: %v", err)
			}

			session, err := st.Cluster.Mount(cmd.Context(), source, target)
			if err != nil {
				llog.Fatalf("mount failed: %v", err)
			}

			waitForInterrupt(cmd.Context())

			if err = session.Close(); err != nil {
				llog.Fatalf("failed to close mount: %v", err)
			}
		},
	}
}

// resolveMountSpec picks the mount endpoints from the positional
// arguments, falling back to the configured MOUNT_SOURCE/MOUNT_TARGET
// pair when both are omitted.
func resolveMountSpec(settings *devconfig.Settings, args []string) (string, string, error) {
	switch len(args) {
	case 2:
		return args[0], args[1], nil

	case 0:
		if settings.MountSource == "" || settings.MountTarget == "" {
			return "", "", merry.New(
				"no mount configured, pass <source> <target> or set MOUNT_SOURCE and MOUNT_TARGET")
		}

		return settings.MountSource, settings.MountTarget, nil

	default:
		return "", "", merry.New("mount takes either no arguments or <source> <target>")
	}
}

// waitForInterrupt blocks until SIGINT/SIGTERM so the mount process
// keeps serving while the command is in the foreground.
func waitForInterrupt(ctx context.Context) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(signals)

	llog.Info("mount is active, press Ctrl-C to release it")

	select {
	case <-signals:
	case <-ctx.Done():
	}
}
