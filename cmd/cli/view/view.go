package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mpaf/cdk-snippets/pkg/catalog"
	"github.com/mpaf/cdk-snippets/pkg/convention/image"
	"github.com/mpaf/cdk-snippets/pkg/service/outputs"
	"github.com/mpaf/cdk-snippets/pkg/service/probe"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/docker/docker/api/types"
	"github.com/golang-module/carbon/v2"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	staleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func Apps(entries []catalog.Entry) string {
	t := newTable("App", "Stack", "Description")
	for _, e := range entries {
		t.Row(e.Name, e.StackId, e.Description)
	}
	return t.String()
}

func Stack(s outputs.Stack) string {
	updated := carbon.CreateFromStdTime(s.LastUpdated).DiffForHumans()
	header := titleStyle.Render(s.Name) + " " + s.Status + " (updated " + updated + ")"

	keys := make([]string, 0, len(s.Outputs))
	for key := range s.Outputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := newTable("Output", "Value")
	for _, key := range keys {
		t.Row(key, s.Outputs[key])
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, t.String())
}

func Probe(r probe.Result) string {
	return okStyle.Render("ok") + fmt.Sprintf(" %s answered %d after %d attempt(s) in %s", r.Url, r.Status, r.Attempts, r.Elapsed.Round(time.Millisecond))
}

func Images(summaries []image.Summary) string {
	t := newTable("Digest", "Tags", "Pushed").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row > 0 && row <= len(summaries) && summaries[row-1].Stale {
				return staleStyle
			}
			return lipgloss.NewStyle()
		})

	for _, s := range summaries {
		t.Row(s.Digest, s.Tags, s.Pushed)
	}
	return t.String()
}

func Inspect(repository, tag string, inspect types.ImageInspect) string {
	t := newTable("Field", "Value")
	t.Row("Image", repository+":"+tag)
	t.Row("Platform", inspect.Os+"/"+inspect.Architecture)
	t.Row("Created", inspect.Created)

	if inspect.Config != nil {
		ports := make([]string, 0, len(inspect.Config.ExposedPorts))
		for port := range inspect.Config.ExposedPorts {
			ports = append(ports, string(port))
		}
		sort.Strings(ports)

		t.Row("Ports", strings.Join(ports, ","))
		t.Row("Entrypoint", strings.Join(inspect.Config.Entrypoint, " "))

		labels := make([]string, 0, len(inspect.Config.Labels))
		for key, value := range inspect.Config.Labels {
			labels = append(labels, key+"="+value)
		}
		sort.Strings(labels)
		t.Row("Labels", strings.Join(labels, "\n"))
	}

	return t.String()
}
