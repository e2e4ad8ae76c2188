package commands

import (
	"os"
	"path/filepath"

	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/service"
	"gitlab.com/dataworks/devstack/pkg/state"
	"gitlab.com/dataworks/devstack/pkg/tools"
)

func newDownCommand(st *state.State) *cobra.Command {
	var purge bool

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Remove the enabled services, optionally the whole namespace and cluster",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			enabled, err := service.Enabled(st.Settings)
			if err != nil {
				llog.Fatalf("down failed: %v", err)
			}

			// removal in reverse deployment order, consumers first
			for i := len(enabled) - 1; i >= 0; i-- {
				svc := enabled[i]

				llog.Infof("removing %s", svc.Name())

				if err = svc.Remove(ctx, st); err != nil {
					llog.Fatalf("%s remove failed: %v", svc.Name(), err)
				}
			}

			if !purge {
				return
			}

			engine, err := st.EnsureEngine()
			if err != nil {
				llog.Fatalf("down failed: %v", err)
			}

			if err = engine.DeleteNamespace(ctx, st.Settings.Namespace); err != nil {
				llog.Fatalf("namespace delete failed: %v", err)
			}

			if err = st.Cluster.Stop(ctx); err != nil {
				llog.Fatalf("cluster stop failed: %v", err)
			}

			cleanupForwardLogs()
		},
	}

	downCmd.Flags().BoolVar(&purge, "purge", false,
		"also delete the namespace and stop the cluster")

	return downCmd
}

// cleanupForwardLogs drops the port-forward log files left in the temp
// directory by health probes.
func cleanupForwardLogs() {
	tempDir := os.TempDir()

	matches, err := filepath.Glob(filepath.Join(tempDir, "devstack-port-forward-*.log"))
	if err != nil {
		return
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}

	tools.RemovePathList(names, tempDir)
}
