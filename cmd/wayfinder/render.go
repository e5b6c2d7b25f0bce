package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	legStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	changeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true).
			MarginLeft(2)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

func nodeLabel(n *storage.Node) string {
	return fmt.Sprintf("%s %s", n.ShortName, dimStyle.Render("("+string(n.ID)+", "+string(n.Type)+")"))
}

// renderRoute draws one box per floor with the floor changes between them.
func renderRoute(r *pathfinder.Route) string {
	byID := make(map[storage.NodeID]*storage.Node, len(r.Nodes))
	for _, n := range r.Nodes {
		byID[n.ID] = n
	}

	var b strings.Builder
	first, last := r.Nodes[0], r.Nodes[len(r.Nodes)-1]
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s → %s", first.ShortName, last.ShortName)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  cost %.1f, %d stops, graph v%d", r.Cost, len(r.Nodes), r.GraphVersion)))
	b.WriteString("\n")

	for i, leg := range r.Legs {
		lines := []string{headerStyle.Render(fmt.Sprintf("%s, floor %s", leg.Building, leg.Floor))}
		for _, id := range leg.Nodes {
			lines = append(lines, "• "+nodeLabel(byID[id]))
		}
		b.WriteString(legStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
		if i < len(r.FloorChanges) {
			fc := r.FloorChanges[i]
			b.WriteString(changeStyle.Render(fmt.Sprintf("↕ %s from %s to %s", strings.ToLower(string(fc.Via)), fc.FromFloor, fc.ToFloor)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCheck(st storage.Statistics, result *algorithms.ComponentsResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d nodes, %d edges", st.NodeCount, st.EdgeCount)))
	b.WriteString("\n")
	if result.Connected() {
		b.WriteString(successStyle.Render("✓ every node can reach every other node"))
		return b.String()
	}
	b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %d disconnected areas", len(result.Components))))
	for _, c := range result.Components {
		ids := make([]string, len(c.Nodes))
		for i, id := range c.Nodes {
			ids[i] = string(id)
		}
		b.WriteString(fmt.Sprintf("\n  area %d: %d nodes on floors %s\n    %s",
			c.ID, c.Size, strings.Join(c.Floors, ", "), dimStyle.Render(strings.Join(ids, " "))))
	}
	return b.String()
}

func renderNodes(nodes []*storage.Node) string {
	if len(nodes) == 0 {
		return dimStyle.Render("no nodes")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-5s %-10s %-6s %s", "ID", "TYPE", "BUILDING", "FLOOR", "NAME")))
	for _, n := range nodes {
		fmt.Fprintf(&b, "\n%-12s %-5s %-10s %-6s %s", n.ID, n.Type, n.Building, n.Floor, n.LongName)
	}
	return b.String()
}
