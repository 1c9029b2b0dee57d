package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"devteam/internal/artifact"
	"devteam/internal/domain"
	devteamsdk "devteam/sdk/go"
)

var agentColors = map[string]lipgloss.Color{
	string(domain.RoleITProjectManager): lipgloss.Color("#2DD4BF"),
	string(domain.RoleProductManager):   lipgloss.Color("#F472B6"),
	string(domain.RoleProductOwner):     lipgloss.Color("#FB923C"),
	string(domain.RoleAIProductManager): lipgloss.Color("#E879F9"),
	string(domain.RoleResearcher):       lipgloss.Color("#A3E635"),
	string(domain.RoleUIUXDesigner):     lipgloss.Color("#FB7185"),
	string(domain.RoleArchitect):        lipgloss.Color("#C084FC"),
	string(domain.RoleFrontendDev):      lipgloss.Color("#7DD3FC"),
	string(domain.RoleBackendDev):       lipgloss.Color("#A78BFA"),
	string(domain.RoleEngineer):         lipgloss.Color("#60A5FA"),
	string(domain.RoleQA):               lipgloss.Color("#FACC15"),
	string(domain.RoleGenAIEngineer):    lipgloss.Color("#818CF8"),
	string(domain.RoleDevOps):           lipgloss.Color("#22D3EE"),
	string(domain.RoleSecurity):         lipgloss.Color("#F87171"),
	string(domain.RoleDocs):             lipgloss.Color("#4ADE80"),
}

var levelColors = map[string]lipgloss.Color{
	string(domain.LevelWarning): lipgloss.Color("#FBBF24"),
	string(domain.LevelError):   lipgloss.Color("#EF4444"),
	string(domain.LevelSuccess): lipgloss.Color("#22C55E"),
}

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	statusStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	winnerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
)

func agentStyle(agent string) lipgloss.Style {
	color, ok := agentColors[agent]
	if !ok {
		color = lipgloss.Color("#9CA3AF")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}

func renderLog(l devteamsdk.LogEntry) string {
	msg := l.Message
	if color, ok := levelColors[l.Level]; ok {
		msg = lipgloss.NewStyle().Foreground(color).Render(msg)
	}
	return fmt.Sprintf("%s %s %s",
		dimStyle.Render(l.Timestamp.Local().Format("15:04:05")),
		agentStyle(l.Agent).Render("["+l.Agent+"]"),
		msg)
}

func renderStatus(p devteamsdk.Project) string {
	line := statusStyle.Render(p.Status) + dimStyle.Render(fmt.Sprintf(" %3d%%", p.Progress))
	if len(p.ActiveAgents) > 0 {
		line += dimStyle.Render("  on duty: " + strings.Join(p.ActiveAgents, ", "))
	}
	return line
}

// logPrinter prints each log entry once across successive snapshots.
type logPrinter struct {
	w      io.Writer
	seen   map[string]struct{}
	status string
}

func newLogPrinter(w io.Writer) *logPrinter {
	return &logPrinter{w: w, seen: make(map[string]struct{})}
}

func (lp *logPrinter) print(p devteamsdk.Project) {
	if p.Status != lp.status {
		lp.status = p.Status
		fmt.Fprintln(lp.w, renderStatus(p))
	}
	for _, l := range p.Logs {
		if _, ok := lp.seen[l.ID]; ok {
			continue
		}
		lp.seen[l.ID] = struct{}{}
		fmt.Fprintln(lp.w, renderLog(l))
	}
}

func printProjects(items []devteamsdk.Project) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Status", "Progress", "Created"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.Name, p.Status, fmt.Sprintf("%d%%", p.Progress), p.CreatedAt.Local().Format("2006-01-02 15:04:05")})
	}
	tw.Render()
}

func printCandidates(items []devteamsdk.Candidate) {
	if len(items) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"", "Candidate", "Model", "Stack", "Status", "Tests", "Coverage", "Security", "Maint.", "Exec."})
	for _, c := range items {
		mark := ""
		if c.Selected {
			mark = winnerStyle.Render("★")
		}
		tw.AppendRow(table.Row{
			mark, c.Name, c.Model, c.Stack, c.Status,
			fmt.Sprintf("%d/%d", c.UnitTestsPassed, c.TotalTests),
			fmt.Sprintf("%.1f%%", c.Coverage),
			fmt.Sprintf("%d/10", c.SecurityScore),
			fmt.Sprintf("%.1f", c.MaintainabilityIndex),
			fmt.Sprintf("%.1f%%", c.Executability),
		})
	}
	tw.Render()
}

func printArtifacts(items []devteamsdk.Artifact) {
	if len(items) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Type", "Language"})
	for _, a := range items {
		tw.AppendRow(table.Row{a.ID, a.Name, a.Type, a.Language})
	}
	tw.Render()
}

func printEvents(items []domain.Event) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "TS", "Tick", "Type", "Actor", "Entity", "Payload"})
	for _, e := range items {
		tw.AppendRow(table.Row{e.ID, e.TS, e.Tick, e.Type, e.ActorID, e.EntityKind + ":" + e.EntityID, e.Payload})
	}
	tw.Render()
}

type rosterEntry struct {
	Role   string   `json:"role"`
	OnDuty []string `json:"on_duty"`
}

// agentRoster lists every role with the statuses in which it is active.
func agentRoster() []rosterEntry {
	statuses := []domain.Status{
		domain.StatusPlanning, domain.StatusArchitecting, domain.StatusRaceMode,
		domain.StatusTesting, domain.StatusDeploying, domain.StatusCompleted,
	}
	out := make([]rosterEntry, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		e := rosterEntry{Role: string(r), OnDuty: []string{}}
		for _, s := range statuses {
			for _, active := range domain.ActiveAgents(s) {
				if active == r {
					e.OnDuty = append(e.OnDuty, string(s))
				}
			}
		}
		out = append(out, e)
	}
	return out
}

func printRoster(w io.Writer, roster []rosterEntry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Role", "On duty"})
	for _, e := range roster {
		tw.AppendRow(table.Row{agentStyle(e.Role).Render(e.Role), strings.Join(e.OnDuty, ", ")})
	}
	tw.Render()
}

// toView maps an in-process project onto the API model used for printing.
func toView(p domain.Project, running bool) devteamsdk.Project {
	v := devteamsdk.Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Progress:    p.Progress,
		Running:     running,
		CreatedAt:   p.CreatedAt,
	}
	for _, r := range domain.ActiveAgents(p.Status) {
		v.ActiveAgents = append(v.ActiveAgents, string(r))
	}
	for _, l := range p.Logs {
		v.Logs = append(v.Logs, devteamsdk.LogEntry{ID: l.ID, Timestamp: l.Timestamp, Agent: string(l.Agent), Message: l.Message, Level: string(l.Level)})
	}
	for _, c := range p.Candidates {
		v.Candidates = append(v.Candidates, devteamsdk.Candidate{
			ID: c.ID, Name: c.Name, Model: c.Model, Stack: c.Stack, Status: string(c.Status),
			UnitTestsPassed: c.UnitTestsPassed, TotalTests: c.TotalTests, Coverage: c.Coverage,
			SecurityScore: c.SecurityScore, MaintainabilityIndex: c.MaintainabilityIndex,
			Executability: c.Executability, Selected: c.Selected,
		})
	}
	for _, a := range p.Artifacts {
		v.Artifacts = append(v.Artifacts, devteamsdk.Artifact{ID: a.ID, Name: a.Name, Type: string(a.Type), Language: artifact.Language(a), Content: artifact.Format(a)})
	}
	if w, ok := p.Winner(); ok {
		v.WinnerID = w.ID
	}
	return v
}
