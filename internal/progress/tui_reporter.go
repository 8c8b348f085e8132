package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const colorLime = "154"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorLime))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// tuiReporter renders a live progress bar for indexed/limit, queue depth,
// and error count while a crawl is running.
type tuiReporter struct {
	program *tea.Program
	done    chan struct{}
}

func newTUIReporter(out io.Writer) (*tuiReporter, error) {
	f, ok := out.(*os.File)
	if !ok {
		return nil, fmt.Errorf("progress: output is not a terminal")
	}

	model := newCrawlModel()
	opts := []tea.ProgramOption{tea.WithOutput(f)}
	program := tea.NewProgram(model, opts...)

	r := &tuiReporter{program: program, done: make(chan struct{})}
	go func() {
		defer close(r.done)
		_, _ = program.Run()
	}()
	return r, nil
}

func (r *tuiReporter) Update(e Event) {
	r.program.Send(eventMsg(e))
}

func (r *tuiReporter) Done() {
	r.program.Quit()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
}

type eventMsg Event

type crawlModel struct {
	bar      progress.Model
	event    Event
	quitting bool
}

func newCrawlModel() *crawlModel {
	return &crawlModel{
		bar: progress.New(progress.WithSolidFill(colorLime), progress.WithWidth(40)),
	}
}

func (m *crawlModel) Init() tea.Cmd {
	return nil
}

func (m *crawlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.event = Event(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *crawlModel) View() string {
	if m.quitting {
		return ""
	}

	ratio := 0.0
	if m.event.Limit > 0 {
		ratio = float64(m.event.Indexed) / float64(m.event.Limit)
	}

	status := fmt.Sprintf("%d/%d indexed", m.event.Indexed, m.event.Limit)
	detail := dimStyle.Render(fmt.Sprintf("queue=%d errors=%d", m.event.QueueLen, m.event.Errors))

	return headerStyle.Render("Crawling") + "\n" +
		m.bar.ViewAs(ratio) + "\n" +
		status + "  " + detail + "\n"
}
