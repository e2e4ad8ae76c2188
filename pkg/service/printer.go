package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"atomicgo.dev/cursor"
	"github.com/olekukonko/tablewriter"

	"gitlab.com/dataworks/devstack/pkg/state"
)

// StatusPrinter keeps a row per service and redraws the table in place
// while deployments progress.
type StatusPrinter struct {
	serviceRows  *[][]string
	statusStings *strings.Builder
	statusTable  *tablewriter.Table
	printArea    *cursor.Area
}

type ServiceRows [][]string

func (serviceRows ServiceRows) Len() int {
	return len(serviceRows)
}

func (serviceRows ServiceRows) Less(i, j int) bool {
	return serviceRows[i][0] < serviceRows[j][0]
}

func (serviceRows ServiceRows) Swap(i, j int) {
	serviceRows[i], serviceRows[j] = serviceRows[j], serviceRows[i]
}

func statusTableHeader() []string {
	return []string{"SERVICE", "STATE", "READY", "URLS"}
}

func CreateStatusPrinter(services []Service) *StatusPrinter {
	statusStrings := &strings.Builder{}
	statusTable := tablewriter.NewWriter(statusStrings)
	statusTable.SetHeader(statusTableHeader())
	statusTable.SetAutoWrapText(false)

	printArea := cursor.NewArea()

	serviceRows := make([][]string, len(services))
	for index, svc := range services {
		// Service | State | Ready | URLs
		serviceRows[index] = []string{svc.Name(), string(StateNotDeployed), "", ""}
	}

	return &StatusPrinter{
		serviceRows:  &serviceRows,
		statusStings: statusStrings,
		statusTable:  statusTable,
		printArea:    &printArea,
	}
}

// UpdateRow replaces the row for the named service and redraws the
// whole table in the terminal area.
func (statusPrinter *StatusPrinter) UpdateRow(name string, status Status, urls []AccessURL) {
	for _, row := range *statusPrinter.serviceRows {
		if row[0] != name {
			continue
		}

		row[1] = string(status.State)
		row[2] = fmt.Sprintf("%d/%d", status.ReadyPods, status.TotalPods)
		row[3] = formatURLs(urls)
	}

	statusPrinter.statusStings.Reset()
	statusPrinter.statusTable.ClearRows()
	statusPrinter.statusTable.AppendBulk(*statusPrinter.serviceRows)
	statusPrinter.statusTable.Render()
	statusPrinter.printArea.Update(statusPrinter.statusStings.String())
}

func formatURLs(urls []AccessURL) string {
	parts := make([]string, 0, len(urls))
	for _, accessURL := range urls {
		parts = append(parts, fmt.Sprintf("%s=%s", accessURL.Name, accessURL.URL))
	}

	return strings.Join(parts, " ")
}

// RenderStatusTable collects the current status of every given service
// and returns the rendered table, sorted by service name. Services
// whose status or URLs cannot be fetched are shown with the error text
// in the affected column rather than aborting the whole report.
func RenderStatusTable(ctx context.Context, st *state.State, services []Service) string {
	rows := make([][]string, 0, len(services))

	for _, svc := range services {
		status, err := svc.Status(ctx, st)
		if err != nil {
			rows = append(rows, []string{svc.Name(), fmt.Sprintf("error: %v", err), "", ""})

			continue
		}

		urlColumn := ""

		if status.State != StateNotDeployed {
			urls, urlErr := svc.URLs(ctx, st)
			if urlErr != nil {
				urlColumn = fmt.Sprintf("error: %v", urlErr)
			} else {
				urlColumn = formatURLs(urls)
			}
		}

		rows = append(rows, []string{
			svc.Name(),
			string(status.State),
			fmt.Sprintf("%d/%d", status.ReadyPods, status.TotalPods),
			urlColumn,
		})
	}

	sort.Sort(ServiceRows(rows))

	builder := &strings.Builder{}
	table := tablewriter.NewWriter(builder)
	table.SetHeader(statusTableHeader())
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()

	return builder.String()
}
