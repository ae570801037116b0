package compose

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/DukeRupert/smartmail/internal/domain"
)

const (
	// minBodyLength is the shortest model body accepted as a real email.
	minBodyLength = 100

	// echoPrefixLength is how much of the context a body may not simply repeat.
	echoPrefixLength = 50

	// minEchoCheckLength skips the echo check for contexts too short to be distinctive.
	minEchoCheckLength = 30
)

var (
	subjectLine       = regexp.MustCompile(`(?i)Subject:[ \t]*(.+?)(?:\r?\n|$)`)
	dearRecipient     = regexp.MustCompile(`(?i)^Dear\s+\[Recipient\]`)
	senderPlaceholder = regexp.MustCompile(`(?i)\[Sender name/business\]`)
	recipientHolder   = regexp.MustCompile(`(?i)\[Recipient\]`)
	yourPlaceholder   = regexp.MustCompile(`(?i)\[Your[^\]]*\]`)
	curlyPlaceholder  = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)
	codeFence         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	blankRun          = regexp.MustCompile(`\n{3,}`)
)

// Draft is a subject and body pair.
type Draft struct {
	Subject string
	Body    string
}

// parsed describes what the parser recovered from model output.
type parsed struct {
	Draft
	SubjectFound bool // subject came from the model rather than the default
	Usable       bool // body passed the quality checks
	Problem      string
}

// parseOutput extracts a draft from raw model text. It tries a JSON object first,
// then a "Subject:" line with the remainder as the body.
func parseOutput(text string, req domain.GenerateRequest) parsed {
	var out parsed
	out.Subject = defaultSubject(req)

	if d, ok := parseJSON(text); ok {
		out.Subject = d.Subject
		out.SubjectFound = true
		out.Body = d.Body
	} else {
		body := text
		if m := subjectLine.FindStringSubmatchIndex(text); m != nil {
			if s := strings.TrimSpace(text[m[2]:m[3]]); s != "" {
				out.Subject = strings.Trim(s, `"*`)
				out.SubjectFound = true
			}
			body = text[:m[0]] + text[m[1]:]
		}
		out.Body = body
	}

	out.Subject = strings.TrimSpace(out.Subject)
	out.Body = cleanBody(out.Body, req)

	switch {
	case utf8.RuneCountInString(out.Body) < minBodyLength:
		out.Problem = "body too short"
	case echoesContext(out.Body, req.Context):
		out.Problem = "body repeats the context"
	case curlyPlaceholder.MatchString(out.Body) || curlyPlaceholder.MatchString(out.Subject):
		out.Problem = "unresolved placeholder"
	default:
		out.Usable = true
	}
	if out.Subject == "" {
		out.Subject = defaultSubject(req)
		out.SubjectFound = false
	}

	return out
}

// parseJSON looks for a {"subject","body"} object, possibly inside a code fence or prose.
func parseJSON(text string) (Draft, bool) {
	candidate := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	}
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end <= start {
		return Draft{}, false
	}

	var payload struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &payload); err != nil {
		return Draft{}, false
	}
	if strings.TrimSpace(payload.Subject) == "" || strings.TrimSpace(payload.Body) == "" {
		return Draft{}, false
	}
	return Draft{Subject: payload.Subject, Body: payload.Body}, true
}

func cleanBody(body string, req domain.GenerateRequest) string {
	body = strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	body = dearRecipient.ReplaceAllLiteralString(body, "Dear "+req.RecipientType)
	body = senderPlaceholder.ReplaceAllLiteralString(body, req.BusinessType)
	body = recipientHolder.ReplaceAllLiteralString(body, req.RecipientType)
	body = yourPlaceholder.ReplaceAllLiteralString(body, "")
	body = blankRun.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

func echoesContext(body, context string) bool {
	context = strings.TrimSpace(context)
	if utf8.RuneCountInString(context) < minEchoCheckLength {
		return false
	}
	prefix := context
	if runes := []rune(context); len(runes) > echoPrefixLength {
		prefix = string(runes[:echoPrefixLength])
	}
	return strings.Contains(body, prefix)
}

func defaultSubject(req domain.GenerateRequest) string {
	return fmt.Sprintf("Professional %s from %s", req.Type.Words(), req.BusinessType)
}
