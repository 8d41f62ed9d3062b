// ABOUTME: Builds the generation request for a visit summary
// ABOUTME: Pure and deterministic; sections for unanswered prompts and empty lists are omitted
package summary

import (
	"fmt"
	"strings"

	"github.com/harperreed/onsite/models"
)

// SystemPrompt frames the generator as the author of the report.
const SystemPrompt = "You are a professional Customer Success Manager creating comprehensive visit reports. Write in a clear, concise, and actionable style."

const audioOnlyNote = "(Audio recorded, no transcript available.)"

// Request is the payload handed to a Generator.
type Request struct {
	System string
	Prompt string
}

// Build renders a visit into a generation request.
func Build(v *models.Visit) Request {
	var b strings.Builder

	b.WriteString("You are an expert Customer Success Manager. Generate a comprehensive, professional onsite visit summary based on the following information. ")
	b.WriteString("The summary should be well-structured, actionable, and suitable for sharing with internal stakeholders.\n\n")

	b.WriteString("## Customer Information\n")
	fmt.Fprintf(&b, "- **Customer Name:** %s\n", v.CustomerName)
	fmt.Fprintf(&b, "- **Account ID:** %s\n", v.AccountID)
	fmt.Fprintf(&b, "- **ARR:** %s\n", v.ARR)
	fmt.Fprintf(&b, "- **Account Health:** %s\n", v.HealthScore.Label())
	fmt.Fprintf(&b, "- **Tags:** %s\n", tagList(v.Tags))

	b.WriteString("\n## Customer Overview\n")
	b.WriteString(strings.TrimSpace(v.CustomerSummary))
	b.WriteString("\n")

	if len(v.Contacts) > 0 {
		b.WriteString("\n### Key Contacts Met\n")
		for _, c := range v.Contacts {
			fmt.Fprintf(&b, "- **%s** (%s)", c.Name, c.Title)
			if c.IsChampion {
				b.WriteString(" ⭐ Champion")
			}
			fmt.Fprintf(&b, "\n  Email: %s | Phone: %s\n", c.Email, c.Phone)
		}
	}

	b.WriteString("\n## Visit Details\n")
	for _, p := range v.Prompts {
		if !p.Answered() {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n%s\n", p.Title, answerBody(p))
	}

	if len(v.SellingOpportunities) > 0 {
		b.WriteString("\n### Selected Products/Services to Sell\n")
		for _, o := range v.SellingOpportunities {
			info := o.Info()
			fmt.Fprintf(&b, "- **%s** - %s\n", info.Label, info.Description)
		}
	}

	if len(v.ActionItems) > 0 {
		b.WriteString("\n### Action Items\n")
		for _, a := range v.ActionItems {
			box := " "
			if a.Completed {
				box = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s (Owner: %s, Due: %s)\n", box, a.Description, a.Owner, a.DueDate)
		}
	}

	b.WriteString("\n## Follow-up\n")
	fmt.Fprintf(&b, "- **Next Follow-up Date:** %s\n", orDefault(v.FollowUpDate, "Not set"))
	fmt.Fprintf(&b, "- **Notes:** %s\n", orDefault(v.FollowUpNotes, "None"))

	b.WriteString("\n---\n\n")
	b.WriteString(instructions(v))

	return Request{System: SystemPrompt, Prompt: b.String()}
}

// answerBody prefers the transcript, keeps distinct typed notes and marks audio-only answers.
func answerBody(p models.PromptAnswer) string {
	transcript := strings.TrimSpace(p.Transcript)
	typed := strings.TrimSpace(p.TypedText)

	switch {
	case transcript != "" && typed != "" && typed != transcript:
		return transcript + "\n\nAdditional notes: " + typed
	case transcript != "":
		return transcript
	case typed != "":
		return typed
	}
	return audioOnlyNote
}

func tagList(tags []models.Tag) string {
	if len(tags) == 0 {
		return "None"
	}
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = t.Label()
	}
	return strings.Join(labels, ", ")
}

func opportunityLabels(opps []models.SellingOpportunity) string {
	if len(opps) == 0 {
		return "None specified"
	}
	labels := make([]string, len(opps))
	for i, o := range opps {
		labels[i] = o.Info().Label
	}
	return strings.Join(labels, ", ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func instructions(v *models.Visit) string {
	return `Please generate a polished executive summary that:
1. Opens with a brief overview of the customer and visit purpose
2. Includes a chronological timeline of the day's events (formatted as a timeline with times if provided)
3. Highlights key takeaways and insights from each meeting
4. Clearly outlines customer pain points and needs
5. Lists the SPECIFIC products/services we can sell them (from the selected products above: ` + opportunityLabels(v.SellingOpportunities) + `). For each product, explain WHY it would help this specific customer based on their pain points and needs.
6. **NEXT STEPS SECTION (CRITICAL):** Create a clearly formatted, numbered action plan that includes:
   - WHAT specific action needs to be taken
   - WHO is responsible (owner)
   - WHEN it needs to be done (specific date or timeframe)
   - HOW it relates to the selling opportunities identified
   Make this section prominent and easy to scan.
7. Includes any additional context or observations
8. Ends with an overall assessment and recommendations

Format the output in clean Markdown with clear sections. The NEXT STEPS section should be prominently displayed with clear formatting so it's impossible to miss. Use checkboxes (- [ ]) for each action item.`
}
