package commands

import (
	"fmt"

	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/service"
	"gitlab.com/dataworks/devstack/pkg/state"
)

func newStatusCommand(st *state.State) *cobra.Command {
	var all bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print a table with the state of every service",
		Run: func(cmd *cobra.Command, _ []string) {
			services := service.All()

			if !all {
				enabled, err := service.Enabled(st.Settings)
				if err != nil {
					llog.Fatalf("status failed: %v", err)
				}

				services = enabled
			}

			fmt.Print(service.RenderStatusTable(cmd.Context(), st, services))
		},
	}

	statusCmd.Flags().BoolVar(&all, "all", false,
		"include services outside the enabled list")

	return statusCmd
}
