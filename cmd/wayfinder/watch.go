package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.nanomsg.org/mangos/v3"

	"github.com/dd0wney/cluso-wayfinder/pkg/changefeed"
	"github.com/dd0wney/cluso-wayfinder/pkg/pubsub"
)

// maxWatchEvents is how many recent events the watch view keeps.
const maxWatchEvents = 15

type eventMsg pubsub.Event

type feedErrMsg struct{ err error }

// receiver is the part of changefeed.Listener the view reads from.
type receiver interface {
	Next(timeout time.Duration) (pubsub.Event, error)
}

type watchModel struct {
	addr    string
	feed    receiver
	spinner spinner.Model
	events  []pubsub.Event
	err     error
}

func newWatchModel(addr string, feed receiver) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = changeStyle
	return watchModel{addr: addr, feed: feed, spinner: s}
}

// next waits for the following event. Receive timeouts only mean the feed is
// quiet.
func (m watchModel) next() tea.Cmd {
	return func() tea.Msg {
		for {
			e, err := m.feed.Next(time.Second)
			if errors.Is(err, mangos.ErrRecvTimeout) {
				continue
			}
			if err != nil {
				return feedErrMsg{err}
			}
			return eventMsg(e)
		}
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case eventMsg:
		m.events = append(m.events, pubsub.Event(msg))
		if len(m.events) > maxWatchEvents {
			m.events = m.events[len(m.events)-maxWatchEvents:]
		}
		return m, m.next()
	case feedErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func describeEvent(e pubsub.Event) string {
	subject := e.NodeID
	if e.EdgeID != "" {
		subject = e.EdgeID
	}
	if e.Type == pubsub.PlanImported {
		subject = fmt.Sprintf("%d nodes and edges", e.Count)
	}
	return fmt.Sprintf("%s  %-13s %s  %s",
		dimStyle.Render(e.Time.Local().Format("15:04:05")),
		string(e.Type),
		subject,
		dimStyle.Render(fmt.Sprintf("v%d", e.Version)))
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Change feed " + m.addr))
	b.WriteString("\n\n")
	if len(m.events) == 0 {
		b.WriteString(dimStyle.Render("no changes yet"))
		b.WriteString("\n")
	}
	for _, e := range m.events {
		b.WriteString(describeEvent(e))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("feed error: " + m.err.Error()))
		b.WriteString("\n")
	} else {
		b.WriteString("\n" + m.spinner.View() + dimStyle.Render(" listening, q to quit") + "\n")
	}
	return b.String()
}

func runWatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("watch takes one change feed address: %w", errUsage)
	}
	listener, err := changefeed.Dial(args[0])
	if err != nil {
		return err
	}
	defer listener.Close()

	final, err := tea.NewProgram(newWatchModel(args[0], listener)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(watchModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
