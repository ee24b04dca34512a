package ui

import (
	"fmt"
	"log"
	"strings"

	"esparcraft/pkg/sdk"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxConsoleLines = 3000

type logModel struct {
	sub       chan *sdk.ConsoleMessage
	console   *sdk.Console
	viewport  viewport.Model
	textInput textinput.Model
	err       error
	ready     bool
	serverID  string
	server    *sdk.Server
	lines     []string
	back      bool
	client    *sdk.Client
	width     int
	height    int
}

func initialLogModel(id string, console *sdk.Console, sub chan *sdk.ConsoleMessage, client *sdk.Client) logModel {
	ti := textinput.New()
	ti.Placeholder = "Escribe un comando..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return logModel{
		sub:       sub,
		console:   console,
		textInput: ti,
		serverID:  id,
		client:    client,
	}
}

func (m logModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForMessage(m.sub),
		tickCmd(),
	)
}

type consoleMsg *sdk.ConsoleMessage
type consoleClosedMsg struct{}
type serverDetailsMsg *sdk.Server

func waitForMessage(sub chan *sdk.ConsoleMessage) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-sub
		if !ok {
			return consoleClosedMsg{}
		}
		return consoleMsg(msg)
	}
}

func getServerDetails(client *sdk.Client, id string) tea.Cmd {
	return func() tea.Msg {
		srv, err := client.GetServer(id)
		if err != nil {
			return nil
		}
		return serverDetailsMsg(srv)
	}
}

func (m *logModel) appendLine(l sdk.LogLine) {
	m.lines = append(m.lines, RenderLine(l.Category, l.Text))
	if len(m.lines) > maxConsoleLines {
		m.lines = m.lines[len(m.lines)-maxConsoleLines:]
	}
}

func (m *logModel) apply(msg *sdk.ConsoleMessage) {
	switch msg.Type {
	case "snapshot":
		m.server = msg.Session
		m.lines = m.lines[:0]
		for _, l := range msg.Logs {
			m.appendLine(l)
		}
	case "error":
		m.appendLine(sdk.LogLine{Category: "ERROR", Text: msg.Error})
	case "event":
		ev := msg.Event
		if ev == nil {
			return
		}
		switch ev.Kind {
		case "log":
			if ev.Log != nil {
				m.appendLine(*ev.Log)
			}
		case "clear":
			m.lines = m.lines[:0]
		case "state":
			if m.server != nil {
				m.server.State = ev.State
			}
		case "perf":
			if m.server != nil && ev.Perf != nil {
				m.server.Perf = *ev.Perf
			}
		case "player":
			if m.server != nil && ev.Player != nil {
				m.server.Online = applyPlayer(m.server.Online, *ev.Player)
			}
		}
	}
}

func applyPlayer(online []string, p sdk.PlayerChange) []string {
	out := make([]string, 0, len(online)+1)
	for _, name := range online {
		if !strings.EqualFold(name, p.Name) {
			out = append(out, name)
		}
	}
	if p.Joined {
		out = append(out, p.Name)
	}
	return out
}

func (m logModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.back = true
			return m, tea.Quit
		case tea.KeyEnter:
			if cmd := strings.TrimSpace(m.textInput.Value()); cmd != "" {
				m.textInput.SetValue("")
				if err := m.console.Send(cmd); err != nil {
					m.appendLine(sdk.LogLine{Category: "ERROR", Text: err.Error()})
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 10
		contentWidth := msg.Width - 6

		if !m.ready {
			m.viewport = viewport.New(contentWidth, msg.Height-headerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = msg.Height - headerHeight
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))

	case consoleMsg:
		m.apply(msg)
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, waitForMessage(m.sub)

	case consoleClosedMsg:
		m.err = fmt.Errorf("conexión con la consola cerrada")
		return m, nil

	case serverDetailsMsg:
		m.server = msg

	case tickMsg:
		return m, tea.Batch(getServerDetails(m.client, m.serverID), tickCmd())
	}

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m logModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	title := headerStyle.Width(m.width).Render("CONSOLA DEL SERVIDOR")

	info := "Loading server details..."
	if m.server != nil {
		info = fmt.Sprintf(
			"%s %s  •  ID: %s\n%s  •  Jugadores: %d",
			stateBadge(m.server.State),
			m.server.Config.Name,
			m.server.Config.ID,
			formatPerf(m.server.Perf.CPU, m.server.Perf.RAMMB),
			len(m.server.Online),
		)
	}
	if m.err != nil {
		info += "\n" + RenderLine("ERROR", m.err.Error())
	}

	headerBox := baseStyle.
		Width(m.width-4).
		Align(lipgloss.Center).
		Render(info)

	console := baseStyle.
		Width(m.width - 4).
		Render(m.viewport.View())

	keys := []string{
		keyStyle.Render("enter") + descStyle.Render(": send"),
		keyStyle.Render("esc") + descStyle.Render(": back"),
		keyStyle.Render("ctrl+c") + descStyle.Render(": quit"),
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" • ")
	helpLine := lipgloss.NewStyle().
		Width(m.width - 6).
		Align(lipgloss.Center).
		Render(strings.Join(keys, sep))

	footerBox := footerStyle.
		Width(m.width - 4).
		Align(lipgloss.Left).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("→ %s", m.textInput.View()),
			helpLine,
		))

	return lipgloss.JoinVertical(lipgloss.Center,
		title,
		headerBox,
		console,
		footerBox,
	)
}

// RunLogs opens the live console. It returns true when the user asked to go
// back to the list.
func RunLogs(client *sdk.Client, id string) bool {
	console, err := client.OpenConsole(id)
	if err != nil {
		fmt.Printf("Error connecting to console: %v\nPress Enter to continue...", err)
		fmt.Scanln()
		return true
	}
	defer console.Close()

	sub := make(chan *sdk.ConsoleMessage, 64)
	go func() {
		defer close(sub)
		for {
			msg, err := console.Next()
			if err != nil {
				return
			}
			sub <- msg
		}
	}()

	p := tea.NewProgram(
		initialLogModel(id, console, sub, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	m, err := p.Run()
	if err != nil {
		log.Printf("Error running console UI: %v", err)
		return true
	}
	if lm, ok := m.(logModel); ok {
		return lm.back
	}
	return false
}
