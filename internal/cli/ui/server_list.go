package ui

import (
	"fmt"
	"time"

	"esparcraft/pkg/sdk"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"})
)

type item struct {
	server sdk.Server
}

func (i item) Title() string { return i.server.Config.Name }
func (i item) Description() string {
	return fmt.Sprintf("%s | %d jugadores | %s | ID: %s",
		stateBadge(i.server.State),
		len(i.server.Online),
		formatPerf(i.server.Perf.CPU, i.server.Perf.RAMMB),
		i.server.Config.ID,
	)
}
func (i item) FilterValue() string { return i.server.Config.Name + " " + i.server.State }

type listKeyMap struct {
	start   key.Binding
	stop    key.Binding
	kill    key.Binding
	refresh key.Binding
}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		kill: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "kill"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

type listModel struct {
	list   list.Model
	client *sdk.Client
	keys   *listKeyMap
	choice *sdk.Server
}

type statusMsg string
type serverListMsg []sdk.Server
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m listModel) Init() tea.Cmd {
	return tickCmd()
}

func (m listModel) action(verb string, fn func(string) error) tea.Cmd {
	i, ok := m.list.SelectedItem().(item)
	if !ok {
		return nil
	}
	return tea.Batch(
		func() tea.Msg {
			if err := fn(i.server.Config.ID); err != nil {
				return statusMsg(fmt.Sprintf("Error (%s) %s: %v", verb, i.server.Config.Name, err))
			}
			return statusMsg(fmt.Sprintf("%s: %s", verb, i.server.Config.Name))
		},
		m.list.NewStatusMessage(statusStyle.Render(fmt.Sprintf("%s %s...", verb, i.server.Config.Name))),
	)
}

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.start):
			return m, m.action("start", m.client.StartServer)
		case key.Matches(msg, m.keys.stop):
			return m, m.action("stop", m.client.StopServer)
		case key.Matches(msg, m.keys.kill):
			return m, m.action("kill", m.client.KillServer)
		case key.Matches(msg, m.keys.refresh):
			return m, refreshList(m.client)
		case msg.String() == "enter":
			if i, ok := m.list.SelectedItem().(item); ok {
				m.choice = &i.server
				return m, tea.Quit
			}
		}
	case statusMsg:
		cmd := m.list.NewStatusMessage(statusStyle.Render(string(msg)))
		return m, tea.Batch(cmd, refreshList(m.client))
	case tickMsg:
		return m, tea.Batch(refreshList(m.client), tickCmd())
	case serverListMsg:
		items := make([]list.Item, 0, len(msg))
		for _, s := range msg {
			items = append(items, item{server: s})
		}
		return m, m.list.SetItems(items)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m listModel) View() string {
	return docStyle.Render(m.list.View())
}

func refreshList(client *sdk.Client) tea.Cmd {
	return func() tea.Msg {
		servers, err := client.ListServers()
		if err != nil {
			return nil
		}
		return serverListMsg(servers)
	}
}

// RunServerList shows the interactive list and returns the id picked with
// enter, or "" when the user quit.
func RunServerList(client *sdk.Client) string {
	servers, err := client.ListServers()
	if err != nil {
		fmt.Printf("Error listing servers: %v\n", err)
		return ""
	}

	items := make([]list.Item, 0, len(servers))
	for _, s := range servers {
		items = append(items, item{server: s})
	}

	keys := newListKeyMap()
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Servidores"
	bindings := func() []key.Binding {
		return []key.Binding{keys.start, keys.stop, keys.kill, keys.refresh}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	m := listModel{
		list:   l,
		client: client,
		keys:   keys,
	}

	finalModel, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		fmt.Printf("Error running list: %v\n", err)
		return ""
	}
	if m, ok := finalModel.(listModel); ok && m.choice != nil {
		return m.choice.Config.ID
	}
	return ""
}
