package commands

import (
	"fmt"
	"strings"

	llog "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dataworks/devstack/pkg/service"
	"gitlab.com/dataworks/devstack/pkg/state"
)

// newServiceCommands builds one command per catalog entry, all sharing
// the same verb set plus whatever native CLIs the service proxies.
func newServiceCommands(st *state.State) []*cobra.Command {
	services := service.All()
	cmds := make([]*cobra.Command, 0, len(services))

	for _, svc := range services {
		cmds = append(cmds, newServiceCommand(st, svc))
	}

	return cmds
}

func newServiceCommand(st *state.State, svc service.Service) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   svc.Name(),
		Short: svc.Description(),
	}

	serviceCmd.AddCommand(
		newServiceDeployCommand(st, svc),
		newServiceRemoveCommand(st, svc),
		newServiceRestartCommand(st, svc),
		newServiceStatusCommand(st, svc),
		newServiceLogsCommand(st, svc),
		newServiceURLCommand(st, svc),
	)

	if checker, ok := svc.(service.HealthChecker); ok {
		serviceCmd.AddCommand(newServiceHealthCommand(st, svc, checker))
	}

	if execer, ok := svc.(service.Execer); ok {
		for _, execCommand := range execer.ExecCommands() {
			serviceCmd.AddCommand(newServiceExecCommand(st, execCommand))
		}
	}

	return serviceCmd
}

func newServiceDeployCommand(st *state.State, svc service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy " + svc.Name() + " and wait until it is ready",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := svc.Deploy(cmd.Context(), st); err != nil {
				llog.Fatalf("%s deploy failed: %v", svc.Name(), err)
			}
		},
	}
}

func newServiceRemoveCommand(st *state.State, svc service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove " + svc.Name() + " from the cluster",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := svc.Remove(cmd.Context(), st); err != nil {
				llog.Fatalf("%s remove failed: %v", svc.Name(), err)
			}
		},
	}
}

func newServiceRestartCommand(st *state.State, svc service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Delete the pods of " + svc.Name() + " and wait for fresh ones",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := svc.Restart(cmd.Context(), st); err != nil {
				llog.Fatalf("%s restart failed: %v", svc.Name(), err)
			}
		},
	}
}

func newServiceStatusCommand(st *state.State, svc service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report pod readiness of " + svc.Name(),
		Run: func(cmd *cobra.Command, _ []string) {
			status, err := svc.Status(cmd.Context(), st)
			if err != nil {
				llog.Fatalf("%s status failed: %v", svc.Name(), err)
			}

			fmt.Printf("%s: %s (%d/%d pods ready)\n",
				svc.Name(), status.State, status.ReadyPods, status.TotalPods)
		},
	}
}

func newServiceLogsCommand(st *state.State, svc service.Service) *cobra.Command {
	var (
		follow bool
		tail   int64
	)

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Print logs of the first " + svc.Name() + " pod",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := svc.Logs(cmd.Context(), st, follow, tail); err != nil {
				llog.Fatalf("%s logs failed: %v", svc.Name(), err)
			}
		},
	}

	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream new log lines")
	logsCmd.Flags().Int64Var(&tail, "tail", 0, "number of recent lines to show, 0 for all")

	return logsCmd
}

func newServiceURLCommand(st *state.State, svc service.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the NodePort endpoints of " + svc.Name(),
		Run: func(cmd *cobra.Command, _ []string) {
			urls, err := svc.URLs(cmd.Context(), st)
			if err != nil {
				llog.Fatalf("%s url failed: %v", svc.Name(), err)
			}

			for _, accessURL := range urls {
				fmt.Printf("%s: %s\n", accessURL.Name, accessURL.URL)
			}
		},
	}
}

func newServiceHealthCommand(st *state.State, svc service.Service, checker service.HealthChecker) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe " + svc.Name() + " at the protocol level",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := checker.Health(cmd.Context(), st); err != nil {
				llog.Fatalf("%s health probe failed: %v", svc.Name(), err)
			}

			llog.Infof("%s is healthy", svc.Name())
		},
	}
}

// newServiceExecCommand proxies a native CLI through pod exec. Cobra
// flag parsing is disabled so flags of the proxied tool (psql -c, rpk
// -X) fall through untouched.
func newServiceExecCommand(st *state.State, execCommand service.ExecCommand) *cobra.Command {
	use := execCommand.Use

	return &cobra.Command{
		Use:                strings.Fields(use)[0],
		Short:              execCommand.Short,
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			if err := execCommand.Run(cmd.Context(), st, args); err != nil {
				llog.Fatalf("%s failed: %v", strings.Fields(use)[0], err)
			}
		},
	}
}
