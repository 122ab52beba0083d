package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ctrl.dev/mpcd/api"
)

var (
	docStyle   = lipgloss.NewStyle().Margin(1, 2)
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type TickMsg time.Time

func tickEvery() tea.Cmd {
	return tea.Every(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type monitorModel struct {
	addr     string
	spin     spinner.Model
	statuses []api.CycleStatus
	fetched  bool
	fetchErr error
}

func newMonitorModel(addr string) monitorModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return monitorModel{addr: addr, spin: spin}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tickEvery())
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case TickMsg:
		m.statuses, m.fetchErr = fetchStatus(m.addr)
		m.fetched = true
		return m, tickEvery()
	}

	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

func (m monitorModel) View() string {
	body := titleStyle.Render(fmt.Sprintf("mpcd %s", m.addr)) + "\n\n"

	switch {
	case !m.fetched:
		body += m.spin.View() + " connecting...\n"
	case m.fetchErr != nil:
		body += errStyle.Render(fmt.Sprintf("status fetch failed: %v", m.fetchErr)) + "\n"
	case len(m.statuses) == 0:
		body += m.spin.View() + " no vehicles connected\n"
	default:
		for _, cs := range m.statuses {
			body += fmt.Sprintf(
				"%s  cycles: %d  failures: %d\n  cte: %+.3f  epsi: %+.3f  speed: %.1f\n  steer: %+.3f  throttle: %+.3f  solve: %.1fms\n",
				titleStyle.Render(cs.Conn), cs.Cycles, cs.Failures,
				cs.Cte, cs.Epsi, cs.Speed,
				cs.Steer, cs.Throttle, cs.SolveMillis,
			)
			if cs.LastError != "" {
				body += "  " + errStyle.Render("last error: "+cs.LastError) + "\n"
			}
		}
	}

	body += "\nq to quit"
	return docStyle.Render(body)
}

func fetchStatus(addr string) ([]api.CycleStatus, error) {
	client := http.Client{Timeout: 400 * time.Millisecond}
	resp, err := client.Get(fmt.Sprintf("http://%s/status", addr))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var statuses []api.CycleStatus
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func monitor(addr string) error {
	p := tea.NewProgram(newMonitorModel(addr))
	_, err := p.Run()
	return err
}
