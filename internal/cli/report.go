package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/drips-network/gardener/pkg/centrality"
	"github.com/drips-network/gardener/pkg/diag"
	gio "github.com/drips-network/gardener/pkg/io"
)

// maxListedPackages caps the package names shown per drip list row.
const maxListedPackages = 3

var headerStyle = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)

// renderDripList renders entries as a bordered table.
func renderDripList(entries []centrality.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = dripListRow(i, e)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("#", "Repository", "Ecosystem", "Packages", "Split %").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return StyleHighlight
			case col == 4:
				return StyleNumber.Align(lipgloss.Right)
			case col == 0 || col == 2:
				return StyleDim
			}
			return StyleValue
		})
	return t.Render()
}

func dripListRow(i int, e centrality.Entry) []string {
	return []string{
		fmt.Sprint(i + 1),
		displayURL(e.URL),
		e.Ecosystem,
		packageSummary(e.Packages),
		e.Percentage.StringFixed(centrality.PercentPlaces),
	}
}

func displayURL(u string) string {
	u = strings.TrimPrefix(u, "https://")
	return strings.TrimPrefix(u, "http://")
}

// packageSummary lists the first few names and counts the rest.
func packageSummary(names []string) string {
	if len(names) <= maxListedPackages {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(names[:maxListedPackages], ", "), len(names)-maxListedPackages)
}

// renderDiagnosticSummary renders one line per diagnostic kind, sorted by kind.
func renderDiagnosticSummary(summary map[diag.Kind]int) string {
	if len(summary) == 0 {
		return markSuccess + " " + StyleDim.Render("no diagnostics")
	}
	var b strings.Builder
	keyStyle := lipgloss.NewStyle().Foreground(colorMuted).Width(20)
	for _, k := range slices.Sorted(maps.Keys(summary)) {
		fmt.Fprintf(&b, "  %s %s\n", keyStyle.Render(string(k)), StyleNumber.Render(fmt.Sprint(summary[k])))
	}
	return strings.TrimRight(b.String(), "\n")
}

// writeReport writes the full human-readable report of r to w.
func writeReport(w io.Writer, r *gio.Result) {
	fmt.Fprintln(w, StyleTitle.Render("Drip list"))
	printKeyValue(w, "Root", r.Root)
	if r.RepoURL != "" {
		printKeyValue(w, "Repository", r.RepoURL)
	}
	metric := r.Metric
	if r.MetricFallback {
		metric += StyleWarning.Render(" (fallback)")
	}
	printKeyValue(w, "Metric", metric)
	fmt.Fprintln(w, formatStats(r.Stats))
	fmt.Fprintln(w)

	if len(r.DripList) == 0 {
		printWarning(w, "no dependencies ranked")
	} else {
		fmt.Fprintln(w, renderDripList(r.DripList))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, StyleTitle.Render("Diagnostics"))
	fmt.Fprintln(w, renderDiagnosticSummary(r.Summary))
}
