package presenter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/application"
	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxRecent = 50

// Dashboard is a TUI dashboard for run progress
type Dashboard struct {
	snapshot application.Snapshot
	settings entity.Settings
	recent   []string // recently found available domains
	cancel   func()
	bar      progress.Model
	width    int
	height   int
	mu       sync.RWMutex
}

type tickMsg time.Time

// NewDashboard creates a new TUI dashboard. cancel is invoked when the user
// stops the run.
func NewDashboard(settings entity.Settings, cancel func()) *Dashboard {
	if cancel == nil {
		cancel = func() {}
	}
	return &Dashboard{
		settings: settings,
		cancel:   cancel,
		bar:      progress.New(progress.WithDefaultGradient()),
	}
}

// Init initializes the dashboard
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

// Update handles dashboard updates
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			d.cancel()
			return d, tea.Quit
		case "c", "C":
			d.cancel()
			return d, nil
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.bar.Width = max(msg.Width/2-12, 10)
		return d, nil

	case tickMsg:
		// Continue ticking to keep the display updating
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Initializing..."
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	header := d.renderHeader()
	footer := d.renderFooter()

	availableHeight := max(d.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	halfHeight := availableHeight / 2
	leftWidth := d.width / 2
	rightWidth := d.width - leftWidth

	row1 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderRunStats(leftWidth, halfHeight),
		d.renderProgress(rightWidth, halfHeight),
	)
	row2 := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.renderSettings(leftWidth, availableHeight-halfHeight),
		d.renderRecentAvailable(rightWidth, availableHeight-halfHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, row1, row2, footer)
}

// OnRunUpdate implements application.RunObserver
func (d *Dashboard) OnRunUpdate(snapshot application.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Only results appended since the last snapshot are new
	start := len(d.snapshot.Results)
	if start > len(snapshot.Results) || snapshot.RunID != d.snapshot.RunID {
		start = 0
		d.recent = nil
	}
	for _, result := range snapshot.Results[start:] {
		if result.Status == entity.StatusAvailable {
			d.recent = append(d.recent, result.Domain)
		}
	}
	if len(d.recent) > maxRecent {
		d.recent = d.recent[len(d.recent)-maxRecent:]
	}
	d.snapshot = snapshot
}

func boxStyle(color string, width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(1, 2).
		Width(max(width-2, 0)).  // Adjust for border
		Height(max(height-2, 0)) // Adjust for border
}

func (d *Dashboard) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	timeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999"))

	title := titleStyle.Render("🌐 Domain Checker")
	timeInfo := timeStyle.Render(fmt.Sprintf(" %s: %s | Time: %s",
		stateLabel(d.snapshot.State),
		formatElapsed(d.snapshot.Elapsed()),
		time.Now().Format("15:04:05"),
	))

	return title + timeInfo
}

func (d *Dashboard) renderRunStats(width, height int) string {
	stats := d.snapshot.Stats
	lines := []string{
		"📊 Run Statistics",
		"",
		fmt.Sprintf("Total:             %d", stats.Total),
		fmt.Sprintf("Processed:         %d", stats.Processed),
		fmt.Sprintf("Available:         %d", stats.Available),
		fmt.Sprintf("Registered:        %d", stats.Registered),
		fmt.Sprintf("Lookup Errors:     %d", stats.Errors),
	}

	if elapsed := d.snapshot.Elapsed().Seconds(); elapsed > 0 {
		lines = append(lines,
			"",
			fmt.Sprintf("Lookup Rate:       %.1f domains/s", float64(stats.Processed)/elapsed),
		)
	}

	return boxStyle("#874BFD", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderProgress(width, height int) string {
	lines := []string{
		"⏳ Progress",
		"",
		d.bar.ViewAs(completion(d.snapshot.Stats)),
		"",
		fmt.Sprintf("Wave:              %d / %d", d.snapshot.Wave, d.snapshot.Waves),
	}

	return boxStyle("#FF6B6B", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderSettings(width, height int) string {
	lines := []string{
		"⚙️  Settings",
		"",
		fmt.Sprintf("Batch Size:        %d", d.settings.BatchSize),
		fmt.Sprintf("Concurrent:        %d batches", d.settings.ConcurrentBatches),
		fmt.Sprintf("Timeout:           %s", d.settings.Timeout),
		fmt.Sprintf("Max In Flight:     %d lookups", d.settings.MaxInFlight()),
	}

	return boxStyle("#4ECDC4", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderRecentAvailable(width, height int) string {
	lines := []string{
		fmt.Sprintf("✅ Available Domains (Total: %d)", d.snapshot.Stats.Available),
		"",
	}

	if len(d.recent) == 0 {
		lines = append(lines, "No available domains found yet...")
	} else {
		// Height - 2 (border) - 2 (padding) - 2 (title + empty line)
		maxLines := max(height-6, 0)
		start := max(len(d.recent)-maxLines, 0)
		for _, domain := range d.recent[start:] {
			lines = append(lines, fmt.Sprintf("  • %s", domain))
		}
	}

	return boxStyle("#04B575", width, height).Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262")).
		Padding(1, 0)

	if d.snapshot.State.Terminal() {
		return footerStyle.Render("Run finished. Press 'q' to quit")
	}
	return footerStyle.Render("Press 'c' to stop after the current wave, 'q' or 'Ctrl+C' to quit")
}

func completion(stats entity.Stats) float64 {
	if stats.Total == 0 {
		return 0
	}
	return float64(stats.Processed) / float64(stats.Total)
}

func stateLabel(state entity.RunState) string {
	switch state {
	case entity.RunStateRunning:
		return "Running"
	case entity.RunStateCompleted:
		return "Completed"
	case entity.RunStateCancelled:
		return "Cancelled"
	}
	return "Idle"
}

func formatElapsed(elapsed time.Duration) string {
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*500, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
