package compose

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/DukeRupert/smartmail/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// contextSignals are coarse hints pulled from the free-text context.
type contextSignals struct {
	productLaunch      bool
	requestsFeedback   bool
	announcement       bool
	aboutSoftware      bool
	mentionsEfficiency bool
}

func analyzeContext(context string) contextSignals {
	c := strings.ToLower(context)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(c, w) {
				return true
			}
		}
		return false
	}
	return contextSignals{
		productLaunch:      has("new") && has("app", "product", "tool"),
		requestsFeedback:   has("feedback", "review", "rate "),
		announcement:       has("announce", "launch"),
		aboutSoftware:      has("saas", "application", "software"),
		mentionsEfficiency: has("skip", "save time", "saves time", "easier"),
	}
}

// Fallback builds a deterministic email for the brief. The output never
// contains {placeholder} tokens and always names the business in the subject.
func Fallback(req domain.GenerateRequest) Draft {
	f := fields{
		recipient: sanitize(req.RecipientType),
		business:  sanitize(req.BusinessType),
		context:   contextPhrase(sanitize(req.Context)),
	}
	signals := analyzeContext(req.Context)
	return Draft{
		Subject: fallbackSubject(req.Type, req.Tone, f, signals),
		Body:    fallbackBody(req.Type, req.Tone, f, signals),
	}
}

type fields struct {
	recipient string
	business  string
	context   string
}

func fallbackSubject(c domain.Category, tone domain.Tone, f fields, s contextSignals) string {
	biz := displayName(f.business)
	formal := tone == domain.ToneFormal

	// Promotional hints never override an apology.
	if c != domain.CategoryApology {
		switch {
		case s.productLaunch && s.requestsFeedback:
			if formal {
				return fmt.Sprintf("Introducing a New Solution from %s: Your Feedback Is Valued", biz)
			}
			return fmt.Sprintf("%s Built Something New and Would Love Your Thoughts", biz)
		case s.announcement && s.aboutSoftware:
			if formal {
				return fmt.Sprintf("A New Software Solution from %s to Streamline Your Workflow", biz)
			}
			return fmt.Sprintf("Save Hours Every Week with the New Tool from %s", biz)
		case s.mentionsEfficiency:
			if formal {
				return fmt.Sprintf("Streamline Your Work with %s", biz)
			}
			return fmt.Sprintf("Make Your Week Easier with %s", biz)
		}
	}

	switch c {
	case domain.CategoryColdEmail:
		if formal {
			return fmt.Sprintf("Partnership Opportunity with %s", biz)
		}
		return fmt.Sprintf("A Quick Idea from %s", biz)
	case domain.CategoryFollowUp:
		return fmt.Sprintf("Following Up from %s", biz)
	case domain.CategoryOffer:
		if formal {
			return fmt.Sprintf("Exclusive Offer from %s", biz)
		}
		return fmt.Sprintf("A Special Offer from %s, Just for You", biz)
	case domain.CategoryApology:
		return fmt.Sprintf("Our Sincere Apologies from %s", biz)
	case domain.CategoryPartnership:
		return fmt.Sprintf("Partnership Proposal from %s", biz)
	}
	return fmt.Sprintf("A Message from %s", biz)
}

func fallbackBody(c domain.Category, tone domain.Tone, f fields, s contextSignals) string {
	parts := []string{
		greeting(tone, f),
		mainContent(c, tone, f),
		callToAction(c, tone, s),
		closing(c, tone, f),
	}
	return strings.Join(parts, "\n\n")
}

func greeting(tone domain.Tone, f fields) string {
	switch tone {
	case domain.ToneFriendly:
		return fmt.Sprintf("Hi %s,\n\nHope you're doing great!", f.recipient)
	case domain.TonePersuasive:
		return fmt.Sprintf("Hello %s,\n\nI'll keep this brief, because I know your time is valuable.", f.recipient)
	default:
		return fmt.Sprintf("Dear %s,\n\nI hope this email finds you well.", f.recipient)
	}
}

// mainContent holds one paragraph set per category and tone.
func mainContent(c domain.Category, tone domain.Tone, f fields) string {
	switch c {
	case domain.CategoryColdEmail:
		switch tone {
		case domain.ToneFriendly:
			return fmt.Sprintf("I'm reaching out from %s because I think we can really help with %s.\n\n"+
				"We work with people just like you, and we've seen how much of a difference the right support makes. "+
				"I'd love to show you what that could look like for you.", f.business, f.context)
		case domain.TonePersuasive:
			return fmt.Sprintf("At %s, we help every %s we work with get results on %s, and we do it without adding work to their plate.\n\n"+
				"The businesses that act early see the biggest gains, and I'm confident we can deliver the same for you.", f.business, f.recipient, f.context)
		default:
			return fmt.Sprintf("I am writing on behalf of %s to introduce our services regarding %s.\n\n"+
				"We have supported organizations facing similar needs and have consistently delivered measurable, professional results. "+
				"I believe our approach could be of genuine value to you.", f.business, f.context)
		}

	case domain.CategoryFollowUp:
		switch tone {
		case domain.ToneFriendly:
			return fmt.Sprintf("Just circling back on %s. I know things get busy, so I wanted to make sure this didn't slip through the cracks.\n\n"+
				"Everyone here at %s is still excited about it and happy to answer any questions.", f.context, f.business)
		case domain.TonePersuasive:
			return fmt.Sprintf("I'm following up on %s because the timing is right to move forward.\n\n"+
				"%s is ready to get started, and taking the next step now means you'll see the benefits sooner.", f.context, f.business)
		default:
			return fmt.Sprintf("I am following up on our previous correspondence regarding %s.\n\n"+
				"%s remains keen to assist, and I would be glad to provide any further information you may require.", f.context, f.business)
		}

	case domain.CategoryOffer:
		switch tone {
		case domain.ToneFriendly:
			return fmt.Sprintf("We've put together something special at %s and you were the first %s we thought of: %s.\n\n"+
				"It's our way of saying thanks, and we think you're going to love it.", f.business, f.recipient, f.context)
		case domain.TonePersuasive:
			return fmt.Sprintf("For a limited time, %s is offering an exclusive opportunity: %s.\n\n"+
				"Offers like this don't come around often, and spots are limited, so now is the ideal moment to take advantage of it.", f.business, f.context)
		default:
			return fmt.Sprintf("%s is pleased to present an exclusive offer regarding %s.\n\n"+
				"We have prepared this opportunity with your needs in mind and believe it represents significant value.", f.business, f.context)
		}

	case domain.CategoryApology:
		switch tone {
		case domain.ToneFriendly:
			return fmt.Sprintf("I wanted to reach out personally to say we're truly sorry about %s. That's not the experience we want for any %s, and we own it completely.\n\n"+
				"The whole team at %s has looked at what went wrong, and we're already making changes so it doesn't happen again.", f.context, f.recipient, f.business)
		case domain.TonePersuasive:
			return fmt.Sprintf("Please accept our sincere apology regarding %s. You deserve better, and %s is committed to earning back your trust.\n\n"+
				"We have already put concrete fixes in place, and I'd welcome the chance to show you the difference they make.", f.context, f.business)
		default:
			return fmt.Sprintf("On behalf of %s, I would like to offer our sincere apologies regarding %s. "+
				"This does not reflect the standard of service you should expect from us, and we take full responsibility.\n\n"+
				"We have reviewed what happened and are putting measures in place to ensure it does not happen again.", f.business, f.context)
		}

	case domain.CategoryPartnership:
		switch tone {
		case domain.ToneFriendly:
			return fmt.Sprintf("I've been thinking there's a great opportunity for %s to team up with you around %s.\n\n"+
				"Our strengths complement each other nicely, and I think we could build something that works really well for both of us.", f.business, f.context)
		case domain.TonePersuasive:
			return fmt.Sprintf("%s and your organization are well placed to win together on %s.\n\n"+
				"By combining our strengths we can reach more customers, share costs, and move faster than either of us could alone.", f.business, f.context)
		default:
			return fmt.Sprintf("I am writing to propose a partnership between %s and your organization concerning %s.\n\n"+
				"We believe a collaboration would bring mutual benefits and allow both parties to better serve their customers.", f.business, f.context)
		}
	}

	return fmt.Sprintf("I am writing on behalf of %s regarding %s.", f.business, f.context)
}

func callToAction(c domain.Category, tone domain.Tone, s contextSignals) string {
	formal := tone == domain.ToneFormal
	switch {
	case s.requestsFeedback && formal:
		return "I would greatly appreciate the opportunity to hear your thoughts and gather your valuable feedback."
	case s.requestsFeedback:
		return "I'd absolutely love to get your honest feedback and hear what you think!"
	case c == domain.CategoryApology && formal:
		return "If there is anything further we can do to put this right, please do not hesitate to contact me directly."
	case c == domain.CategoryApology:
		return "If there's anything else we can do to make this right, just reply to this email and I'll take care of it."
	case tone == domain.TonePersuasive:
		return "Could we set up a quick 15-minute call this week to get things moving?"
	case formal:
		return "I would welcome the opportunity to discuss this further at your convenience."
	default:
		return "Would love to chat more about this and see if it's a good fit for you!"
	}
}

func closing(c domain.Category, tone domain.Tone, f fields) string {
	switch {
	case tone == domain.ToneFriendly:
		return fmt.Sprintf("Thanks for taking the time to read this!\n\nCheers,\n%s Team", f.business)
	case c == domain.CategoryApology:
		return fmt.Sprintf("Thank you for your patience and understanding.\n\nSincerely,\n%s Team", f.business)
	default:
		return fmt.Sprintf("Thank you for your time and consideration.\n\nBest regards,\n%s Team", f.business)
	}
}

// sanitize removes template braces and collapses whitespace in user input.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// contextPhrase turns free text into a phrase that reads well mid-sentence.
func contextPhrase(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ".!?;:, ")
	if s == "" {
		return "your recent inquiry"
	}
	first, size := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(first) && !startsWithAcronym(s) {
		s = string(unicode.ToLower(first)) + s[size:]
	}
	return s
}

func startsWithAcronym(s string) bool {
	word := strings.Fields(s)[0]
	if utf8.RuneCountInString(word) < 2 {
		return word == "I"
	}
	for _, r := range word {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// displayName title-cases an all-lowercase business name and leaves
// deliberately cased names ("ACME Ltd", "eBay") alone.
func displayName(s string) string {
	if s == strings.ToLower(s) {
		return cases.Title(language.English).String(s)
	}
	return s
}
