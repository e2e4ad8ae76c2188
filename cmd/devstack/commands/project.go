package commands

import (
	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/project"
)

func newProjectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Scaffold downstream projects that use the stack",
	}

	projectCmd.AddCommand(newProjectInitCommand())

	return projectCmd
}

func newProjectInitCommand() *cobra.Command {
	var (
		services []string
		force    bool
	)

	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a .env scaffold and project marker into a directory",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			if err := project.Init(dir, services, force); err != nil {
				llog.Fatalf("project init failed: %v", err)
			}
		},
	}

	initCmd.Flags().StringSliceVarP(&services, "services", "s", nil,
		"services to enable, e.g. -s postgres,redpanda")
	initCmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing scaffold files")

	return initCmd
}
