package tui

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/Pathfinder/internal/flow"
)

// RenderRoadmap formats the roadmap of snap as plain text. Only expanded phases show their
// details. It returns "" when the snapshot has nothing to show as a result.
func RenderRoadmap(snap flow.Snapshot) string {
	if snap.Display() != flow.DisplayResult {
		return ""
	}
	r := snap.Roadmap
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n%s\n", r.Title, strings.Repeat("=", len(r.Title)))
	fmt.Fprintf(&b, "Duration: %s | Level: %s | Style: %s\n", r.Overview.Duration, r.Overview.Level, r.Overview.Style)

	for i, p := range r.Phases {
		marker := "+"
		if snap.IsExpanded(p.ID) {
			marker = "-"
		}
		fmt.Fprintf(&b, "\n[%s] Phase %d: %s (%s)\n", marker, i+1, p.Title, p.Duration)
		if !snap.IsExpanded(p.ID) {
			continue
		}
		fmt.Fprintf(&b, "    Objective: %s\n", p.Objective)
		writeList(&b, "Key Activities", p.Activities)
		writeList(&b, "Milestones", p.Milestones)
		writeList(&b, "Resources", p.Resources)
	}

	if days := r.ScheduleDays(); len(days) > 0 {
		b.WriteString("\nWeekly Schedule\n")
		for _, day := range days {
			fmt.Fprintf(&b, "  %-10s %s\n", capitalize(day)+":", r.Schedule[day])
		}
	}
	if len(r.Tips) > 0 {
		b.WriteString("\nSuccess Tips\n")
		for i, tip := range r.Tips {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, tip)
		}
	}
	if len(r.Checkpoints) > 0 {
		b.WriteString("\nAssessment Checkpoints\n")
		for _, c := range r.Checkpoints {
			fmt.Fprintf(&b, "  Week %d: %s\n", c.Week, c.Task)
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "    %s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "      - %s\n", item)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
