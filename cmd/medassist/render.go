package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/medassist/triage/internal/consult"
)

var (
	speakerStyles = map[string]lipgloss.Style{
		consult.RolePatient:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		consult.RoleDiagnosis:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		consult.RolePharmacy:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		consult.RoleConsultation: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
	}
	defaultSpeakerStyle = lipgloss.NewStyle().Bold(true)

	urgentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("1")).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1)

	planStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func renderTurn(t consult.Turn) string {
	style, ok := speakerStyles[t.Speaker]
	if !ok {
		style = defaultSpeakerStyle
	}
	return fmt.Sprintf("%s\n%s\n", style.Render(t.Speaker), t.Content)
}

func renderUrgent(msg string) string {
	return urgentStyle.Render(msg)
}

func renderOutcome(out *consult.Outcome) string {
	if out.UrgentGuidance != "" {
		return renderUrgent(out.UrgentGuidance)
	}

	var b strings.Builder
	if out.Result != nil {
		b.WriteString(headingStyle.Render("Triage plan") + "\n")
		b.WriteString(fmt.Sprintf("Urgency: %s\n", out.Result.UrgencyLevel))
		writeList(&b, "What it might be", out.Result.PossibleConditions)
		writeList(&b, "What to do now", out.Result.SelfCare)
		writeList(&b, "See a doctor if", out.Result.SeeDoctorIf)
		writeList(&b, "Emergency now if", out.Result.EmergencyNowIf)
		writeList(&b, "Worth clarifying", out.Result.ClarifyingQuestions)
		b.WriteString("\n" + out.Result.Summary + "\n")
	} else {
		b.WriteString(headingStyle.Render("Consultation summary (unstructured)") + "\n")
		b.WriteString(dimStyle.Render("structured recovery failed: "+out.Diagnostic.String()) + "\n\n")
		b.WriteString(out.RawFinal + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("consult "+out.ConsultID+" · fingerprint "+out.Fingerprint))
	b.WriteString("\n" + dimStyle.Render("Educational guidance only - not medical advice."))
	return planStyle.Render(b.String())
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + title + ":\n")
	for _, item := range items {
		b.WriteString("  - " + item + "\n")
	}
}
