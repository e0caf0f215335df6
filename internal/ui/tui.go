package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer drives a full-screen bubbletea display for interactive
// index builds.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *indexingModel
	tracker *ProgressTracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if the output is not a TTY.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newIndexingModel(tracker, cfg.VaultDir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the bubbletea program on its own goroutine. Calling
// Start twice is a no-op.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	_, r.cancel = context.WithCancel(ctx)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer. The tracker holds the numbers;
// the message only wakes the event loop to repaint.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.tracker.Stats().Stage {
		r.tracker.SetStage(event.Stage, event.Total)
	}
	r.tracker.Update(event.Current, event.CurrentFile)

	if r.program != nil {
		r.program.Send(progressMsg(event))
	}
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(event)
	if r.program != nil {
		r.program.Send(errorMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.SetStage(StageComplete, 0)
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	if r.program != nil {
		r.program.Quit()

		// Bounded wait so an unresponsive TUI cannot hang shutdown.
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

var _ Renderer = (*TUIRenderer)(nil)

// bubbletea messages.
type (
	progressMsg ProgressEvent
	errorMsg    ErrorEvent
	completeMsg CompletionStats
	tickMsg     time.Time
)

const (
	minPanelWidth = 40
	minBarWidth   = 20
)

// indexingModel is the bubbletea model for an index build.
type indexingModel struct {
	tracker     *ProgressTracker
	width       int
	height      int
	quitting    bool
	complete    bool
	stats       CompletionStats
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	vaultDir    string
}

func newIndexingModel(tracker *ProgressTracker, vaultDir string) *indexingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal))

	bar := progress.New(
		progress.WithSolidFill(ColorTeal),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return &indexingModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: bar,
		styles:      DefaultStyles(),
		width:       80,
		height:      24,
		vaultDir:    vaultDir,
	}
}

// Init implements tea.Model.
func (m *indexingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// tickCmd repaints every 100ms so the ETA and throughput stay live
// between progress events.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *indexingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = max(msg.Width-20, minBarWidth)

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg, errorMsg:
		// The renderer already fed the tracker; repaint happens on tick.
	}

	return m, nil
}

// View implements tea.Model.
func (m *indexingModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.viewSummary()
	}

	width := m.contentWidth()
	rule := m.styles.Border.Render(strings.Repeat("─", width))

	sections := []string{
		m.viewPipeline(),
		rule,
		m.viewBar(),
		m.viewThroughput(),
	}
	if file := m.tracker.Stats().CurrentFile; file != "" {
		sections = append(sections,
			rule,
			m.styles.Dim.Render(truncateFilePath(file, width-2)))
	}

	title := "Gladys Indexer"
	if m.vaultDir != "" {
		title += " | " + m.vaultDir
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDarkGray)).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(sections, "\n"))

	body := lipgloss.JoinVertical(lipgloss.Left, m.styles.Header.Render(title), panel)
	return body + "\n" + m.viewFooter()
}

func (m *indexingModel) contentWidth() int {
	return max(m.width-4, minPanelWidth)
}

// viewPipeline renders the stage chain with the active stage spinning.
func (m *indexingModel) viewPipeline() string {
	active := m.tracker.Stats().Stage

	labels := [...]string{"Scan", "Chunk", "Embed", "Index"}
	parts := make([]string, 0, len(labels))
	for i, label := range labels {
		stage := Stage(i)
		switch {
		case stage < active:
			parts = append(parts, m.styles.Success.Render("● "+label))
		case stage == active:
			parts = append(parts, m.styles.Active.Render(m.spinner.View()+" "+label))
		default:
			parts = append(parts, m.styles.Dim.Render("○ "+label))
		}
	}

	return strings.Join(parts, m.styles.Dim.Render(" > "))
}

// viewBar renders the progress bar, percentage, and counts.
func (m *indexingModel) viewBar() string {
	stats := m.tracker.Stats()
	if stats.Total == 0 {
		return fmt.Sprintf("%s %s...\n%s",
			m.spinner.View(), stats.Stage, m.styles.Dim.Render("Preparing..."))
	}

	return fmt.Sprintf("%s  %s\n%s",
		m.progressBar.ViewAs(stats.Progress),
		m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100)),
		m.styles.Label.Render(fmt.Sprintf("%d / %d", stats.Current, stats.Total)))
}

// viewThroughput renders items/sec and the ETA.
func (m *indexingModel) viewThroughput() string {
	stats := m.tracker.Stats()

	speed := fmt.Sprintf("Speed: %.0f/s", stats.Speed.Current)
	if stats.Speed.Avg > 0 {
		speed += fmt.Sprintf(" (avg: %.0f, peak: %.0f)", stats.Speed.Avg, stats.Speed.Peak)
	}
	parts := []string{m.styles.Speed.Render(speed)}

	if eta := stats.ETA; eta > 0 {
		parts = append(parts, m.styles.Label.Render("ETA: "+formatDuration(eta)))
	}

	return strings.Join(parts, m.styles.Dim.Render("  |  "))
}

// viewFooter renders the warning/error tallies and the quit hint.
func (m *indexingModel) viewFooter() string {
	stats := m.tracker.Stats()

	var parts []string
	if stats.WarnCount > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("%d warnings", stats.WarnCount)))
	}
	if stats.ErrorCount > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("%d errors", stats.ErrorCount)))
	}
	if len(parts) == 0 {
		return m.styles.Dim.Render("q to quit")
	}

	return strings.Join(parts, m.styles.Dim.Render("  |  ")) + m.styles.Dim.Render("  |  q to quit")
}

// viewSummary renders the post-build panel.
func (m *indexingModel) viewSummary() string {
	lines := []string{
		m.styles.Success.Render("Indexing Complete"),
		"",
		m.summaryRow("Files:", "   ", fmt.Sprintf("%d", m.stats.Files)),
		m.summaryRow("Chunks:", "  ", fmt.Sprintf("%d", m.stats.Chunks)),
		m.summaryRow("Duration:", "", formatDuration(m.stats.Duration)),
	}

	if speed := m.tracker.SpeedStats(); speed.Avg > 0 {
		lines = append(lines, fmt.Sprintf("%s %s",
			m.styles.Label.Render("Avg Speed:"),
			m.styles.Speed.Render(fmt.Sprintf("%.0f chunks/sec", speed.Avg))))
	}

	if m.stats.Errors > 0 || m.stats.Warnings > 0 {
		lines = append(lines, "")
		if m.stats.Errors > 0 {
			lines = append(lines, m.styles.Error.Render(fmt.Sprintf("%d errors", m.stats.Errors)))
		}
		if m.stats.Warnings > 0 {
			lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("%d warnings", m.stats.Warnings)))
		}
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorTeal)).
		Padding(1, 2).
		Width(m.contentWidth())

	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

func (m *indexingModel) summaryRow(label, pad, value string) string {
	return m.styles.Label.Render(label) + pad + " " + m.styles.Active.Render(value)
}

// formatDuration renders a duration at second granularity.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	min := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, min)
	case min > 0 && sec > 0:
		return fmt.Sprintf("%dm %ds", min, sec)
	case min > 0:
		return fmt.Sprintf("%dm", min)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}

// truncateFilePath shortens a path to maxLen, keeping the filename and
// as much of the directory tail as fits.
func truncateFilePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	base := path[strings.LastIndexByte(path, '/')+1:]
	if len(base)+4 > maxLen {
		if maxLen < 4 {
			return "..."
		}
		return "..." + base[len(base)-maxLen+3:]
	}

	keep := maxLen - len(base) - 4
	dir := path[:len(path)-len(base)-1]
	if len(dir) <= keep {
		return path
	}
	return "..." + dir[len(dir)-keep:] + "/" + base
}
