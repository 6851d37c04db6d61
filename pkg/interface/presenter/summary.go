package presenter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/application"
	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/charmbracelet/lipgloss"
)

// WriteSummary prints the statistics of a finished run
func WriteSummary(w io.Writer, snapshot application.Snapshot) error {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(0, 1)

	stats := snapshot.Stats
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Run %s", stateLabel(snapshot.State))),
		fmt.Sprintf("Checked:    %d / %d", stats.Processed, stats.Total),
		fmt.Sprintf("Available:  %d", stats.Available),
		fmt.Sprintf("Registered: %d", stats.Registered),
		fmt.Sprintf("Errors:     %d", stats.Errors),
		fmt.Sprintf("Elapsed:    %s", snapshot.Elapsed().Round(time.Millisecond)),
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}

// WriteValueAnalysis prints the top ranked available domains
func WriteValueAnalysis(w io.Writer, results []entity.DomainResult, top int) error {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Padding(0, 1)

	ranked := application.RankAvailable(results)
	lines := []string{titleStyle.Render("Domain Value Analysis")}
	if len(ranked) == 0 {
		lines = append(lines, "No available domains to rank")
	}
	for i, value := range ranked[:min(top, len(ranked))] {
		lines = append(lines, fmt.Sprintf("%2d. %-32s score %3d", i+1, value.Domain, value.Score))
	}
	if len(ranked) > top {
		lines = append(lines, fmt.Sprintf("... and %d more", len(ranked)-top))
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}
