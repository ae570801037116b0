package compose

import (
	"fmt"
	"strings"

	"github.com/DukeRupert/smartmail/internal/domain"
)

const systemPrompt = "You are a professional business email writer. You write complete, polished emails that are ready to send without further editing."

var toneInstructions = map[domain.Tone]string{
	domain.ToneFormal:     "Write in a professional, respectful, and business-appropriate tone.",
	domain.ToneFriendly:   "Write in a warm, approachable, and conversational tone while maintaining professionalism.",
	domain.TonePersuasive: "Write in a compelling, convincing tone that motivates action while being respectful.",
}

var typeInstructions = map[domain.Category]string{
	domain.CategoryColdEmail:   "Write a professional cold outreach email that introduces the business and creates interest.",
	domain.CategoryFollowUp:    "Write a polite follow-up email that continues a previous conversation or inquiry.",
	domain.CategoryOffer:       "Write an engaging email presenting a valuable offer or opportunity.",
	domain.CategoryApology:     "Write a sincere, professional apology email that takes responsibility and offers resolution.",
	domain.CategoryPartnership: "Write a professional partnership proposal email that highlights mutual benefits.",
}

// BuildPrompt returns the system instruction and user prompt for a brief.
func BuildPrompt(req domain.GenerateRequest) (system, prompt string) {
	typeLine, ok := typeInstructions[req.Type]
	if !ok {
		typeLine = "Write a professional business email."
	}
	toneLine, ok := toneInstructions[req.Tone]
	if !ok {
		toneLine = toneInstructions[domain.ToneFormal]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a complete, polished email based on the following information:\n\n")
	fmt.Fprintf(&b, "Email Type: %s\n", req.Type.Label())
	fmt.Fprintf(&b, "Writing to: %s\n", req.RecipientType)
	fmt.Fprintf(&b, "From: %s\n", req.BusinessType)
	fmt.Fprintf(&b, "Context/Background: %s\n", req.Context)
	fmt.Fprintf(&b, "Tone: %s\n\n", req.Tone)

	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "- %s\n", typeLine)
	fmt.Fprintf(&b, "- %s\n", toneLine)
	b.WriteString("- Transform the provided context into a refined, professional message\n")
	b.WriteString("- Don't just copy the context; interpret it and write a polished version\n")
	b.WriteString("- Include a compelling subject line\n")
	b.WriteString("- Keep the email concise but impactful (150-250 words)\n")
	b.WriteString("- End with an appropriate call-to-action\n")
	b.WriteString("- Do not leave placeholders such as [Name] or {name} in the text\n\n")

	b.WriteString("Respond with only a JSON object of the form:\n")
	b.WriteString(`{"subject": "<subject line>", "body": "<full email body including greeting and sign-off>"}`)
	b.WriteString("\n\nIf you cannot produce JSON, use this format instead:\n")
	b.WriteString("Subject: [Professional subject line]\n\nDear [Recipient],\n\n[Email body]\n\nBest regards,\n[Sender name/business]")

	return systemPrompt, b.String()
}
