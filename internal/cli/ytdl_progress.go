package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/vget/internal/core/stream"
)

var (
	ytdlHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ytdlInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	ytdlDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ytdlErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type ytdlTickMsg time.Time

type ytdlModel struct {
	progress progress.Model
	spinner  spinner.Model

	driver *stream.DownloadDriver
	url    string

	filename      string
	bytesReceived int64
	bytesTotal    int64
	startedAt     time.Time
	done          bool
	err           string
}

func newYtdlModel(driver *stream.DownloadDriver, url string) ytdlModel {
	p := progress.New(progress.WithDefaultGradient(), progress.WithWidth(50))
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ytdlModel{
		progress:  p,
		spinner:   s,
		driver:    driver,
		url:       url,
		startedAt: time.Now(),
	}
}

func ytdlTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return ytdlTickMsg(t)
	})
}

func (m ytdlModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, ytdlTickCmd())
}

func (m ytdlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.driver.Abort()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case ytdlTickMsg:
		if m.done {
			return m, tea.Quit
		}

		drained := true
		for drained {
			select {
			case ev, ok := <-m.driver.Events():
				if !ok {
					m.done = true
					drained = false
					continue
				}
				switch {
				case ev.Progress != nil:
					m.bytesReceived = ev.Progress.BytesReceived
					m.bytesTotal = ev.Progress.BytesTotal
				case ev.MetadataChanged != nil && ev.MetadataChanged.Filename != "":
					m.filename = ev.MetadataChanged.Filename
				case ev.Finished != nil:
					m.done = true
					drained = false
				case ev.Err != "":
					m.err = ev.Err
					m.done = true
					drained = false
				}
			default:
				drained = false
			}
		}

		var cmds []tea.Cmd
		cmds = append(cmds, ytdlTickCmd())
		if m.bytesTotal > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(m.bytesReceived)/float64(m.bytesTotal)))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m ytdlModel) View() string {
	if m.err != "" {
		return fmt.Sprintf("\n  %s Download failed: %s\n\n", ytdlErrStyle.Render("✗"), m.err)
	}

	if m.done {
		elapsed := time.Since(m.startedAt)
		return fmt.Sprintf("\n  %s Download complete\n  File: %s (%s)\n  Elapsed: %s\n\n",
			ytdlDoneStyle.Render("✓"),
			m.filename,
			ytdlFormatBytes(m.bytesReceived),
			ytdlFormatDuration(elapsed),
		)
	}

	var s string
	s += "\n"
	s += fmt.Sprintf("  %s Downloading: %s\n\n", m.spinner.View(), ytdlInfoStyle.Render(m.url))
	s += fmt.Sprintf("  %s\n\n", m.progress.View())

	if m.bytesTotal > 0 {
		percent := float64(m.bytesReceived) / float64(m.bytesTotal) * 100
		s += fmt.Sprintf("  Progress: %.1f%%  |  %s/%s\n", percent, ytdlFormatBytes(m.bytesReceived), ytdlFormatBytes(m.bytesTotal))
	} else {
		s += fmt.Sprintf("  %s\n", ytdlFormatBytes(m.bytesReceived))
	}

	s += "\n"
	s += ytdlHelpStyle.Render("  Press q to cancel")
	s += "\n"
	return s
}

// RunYtdlDownloadTUI drives driver's events through a Bubble Tea progress
// display until the download finishes, fails, or the user cancels.
func RunYtdlDownloadTUI(driver *stream.DownloadDriver, url string) error {
	m := newYtdlModel(driver, url)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	final := finalModel.(ytdlModel)
	if final.err != "" {
		return fmt.Errorf("%s", final.err)
	}
	return nil
}

func ytdlFormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func ytdlFormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d", m, s)
}
