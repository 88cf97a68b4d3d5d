package agent

import (
	"fmt"
	"strings"
)

// Persona selects the drafting instruction set. It changes prompt wording
// only, never control flow.
type Persona string

const (
	// PersonaStudent drafts as a student reaching out to professionals.
	PersonaStudent Persona = "student"
	// PersonaB2B drafts as a B2B sales representative.
	PersonaB2B Persona = "b2b"
)

// ParsePersona maps a configuration string onto a known persona.
func ParsePersona(raw string) (Persona, error) {
	switch Persona(strings.ToLower(strings.TrimSpace(raw))) {
	case PersonaStudent, "":
		return PersonaStudent, nil
	case PersonaB2B:
		return PersonaB2B, nil
	}
	return "", fmt.Errorf("unknown persona %q", raw)
}

func personaInstructions(p Persona) string {
	if p == PersonaB2B {
		return strings.TrimSpace(`
You write concise B2B sales outreach. Lead with the prospect's business
problem, connect it to the sender's offering, and close with a low-friction
call to action. Avoid hype and filler.`)
	}
	return strings.TrimSpace(`
You write outreach emails for a student contacting a professional. Be
respectful and curious, reference the contact's actual work, explain briefly
why the sender is reaching out, and ask for a short conversation.`)
}

func relevantContentPrompt(s *Sender) string {
	accomplishments := "- " + strings.Join(s.KeyAccomplishments, "\n- ")
	return strings.TrimSpace(fmt.Sprintf(`
Condense the sender profile below into a short paragraph of the background
most relevant for professional outreach. Keep concrete details, drop fluff.

Name: %s
Career interest: %s
Resume:
%s
Key accomplishments:
%s`, s.Name, s.CareerInterest, s.Resume, accomplishments))
}

func searchQuery(c Contact, need, feedback, lastQuery string) string {
	if feedback == "" {
		return fmt.Sprintf("%s %s %s", c.FullName, c.CompanyName, need)
	}
	// Retry: fold in the analyzer's feedback so the next query does not
	// repeat an unproductive one.
	return strings.TrimSpace(fmt.Sprintf(
		"%s %s %s (previous query %q was insufficient: %s)",
		c.FullName, c.CompanyName, need, lastQuery, feedback,
	))
}

func summarizePrompt(c Contact, senderName, rawResults string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Summarize the following search results in a professional context.

CONTACT:
- Name: %s
- Company: %s

SEARCH RESULTS:
%s

Extract the information most relevant for %s to reference when reaching out
to %s. Focus on specific details, projects, or experiences that could create
meaningful talking points.`, c.FullName, c.CompanyName, rawResults, senderName, c.FullName))
}

func analyzePrompt(need, summary string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Decide whether the accumulated research below sufficiently covers: %s

RESEARCH:
%s

Respond exactly in this format:
SUFFICIENT: [Yes/No]
REASON: [brief explanation]
KEY_POINTS:
- [key point]`, need, summary))
}

func draftPrompt(p Persona, c Contact, senderContent, summary, critique string) string {
	var b strings.Builder
	b.WriteString(personaInstructions(p))
	fmt.Fprintf(&b, `

Draft an email to %s, %s at %s.

SENDER BACKGROUND:
%s

RESEARCH ABOUT THE CONTACT:
%s
`, c.FullName, c.JobTitle, c.CompanyName, senderContent, summary)
	if critique != "" {
		fmt.Fprintf(&b, "\nRevise the previous draft. Critiques to address:\n%s\n", critique)
	}
	b.WriteString("\nReturn only the email body text.")
	return strings.TrimSpace(b.String())
}

func evaluatePrompt(c Contact, senderContent, summary, draft string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are evaluating an outreach email draft. Decide whether it needs
rewording, needs more research about the contact, or is ready to send.

CONTACT:
Name: %s
Company: %s
Role: %s

RESEARCH SUMMARY:
%s

CURRENT DRAFT:
%s

SENDER BACKGROUND:
%s

Judge personalization, use of the research, tone, clear call to action, and
length. Be a tough critic.

Respond exactly in this format:
COMMAND: [REDRAFT/SEARCH/END]
REASON: [brief explanation of your decision]
DETAILS: [REDRAFT: specific critiques; SEARCH: information to look for; END: why the email is ready]`,
		c.FullName, c.CompanyName, c.JobTitle, summary, draft, senderContent))
}
