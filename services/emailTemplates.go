package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/models"
)

// EmailTemplates renders every email the engine sends. Each template returns
// a Message without recipients.
type EmailTemplates struct {
	SiteName string
	SiteURL  string
}

func NewEmailTemplates() EmailTemplates {
	return EmailTemplates{
		SiteName: initializers.GetEnv("SITE_NAME", "PrayerWall"),
		SiteURL:  initializers.GetEnv("PUBLIC_SITE_URL", ""),
	}
}

const emailLayout = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            text-align: center;
            padding: 20px 0;
            border-bottom: 2px solid #7a9cc6;
        }
        .header h1 {
            color: #7a9cc6;
            margin: 0;
        }
        .content {
            padding: 30px 0;
        }
        .code {
            font-size: 32px;
            font-weight: bold;
            letter-spacing: 8px;
            color: #7a9cc6;
            font-family: monospace;
            text-align: center;
            background-color: #f5f5f5;
            border: 2px solid #7a9cc6;
            border-radius: 8px;
            padding: 20px;
        }
        .quote {
            border-left: 4px solid #7a9cc6;
            padding-left: 12px;
            color: #555;
        }
        .footer {
            text-align: center;
            padding: 20px 0;
            border-top: 1px solid #ddd;
            font-size: 12px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>

    <div class="content">
        <h2>%s</h2>
%s
    </div>

    <div class="footer">
        <p>This is an automated message, please do not reply directly to this email.</p>
    </div>
</body>
</html>
`

func (t EmailTemplates) render(subject, heading string, htmlParas []string, textParas []string) Message {
	var body strings.Builder
	for _, p := range htmlParas {
		body.WriteString("        ")
		body.WriteString(p)
		body.WriteString("\n")
	}

	return Message{
		Subject: subject,
		HTML:    fmt.Sprintf(emailLayout, html.EscapeString(t.SiteName), html.EscapeString(heading), body.String()),
		Text:    heading + "\n\n" + strings.Join(textParas, "\n\n") + "\n",
	}
}

func greeting(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hi %s,", name)
}

func (t EmailTemplates) VerificationCode(name, code string, action models.ActionType, ttlMinutes int) Message {
	return t.render(
		fmt.Sprintf("Your %s verification code", t.SiteName),
		"Confirm your email",
		[]string{
			"<p>" + html.EscapeString(greeting(name)) + "</p>",
			fmt.Sprintf("<p>Use the code below to confirm your %s:</p>", html.EscapeString(action.Label())),
			fmt.Sprintf(`<div class="code">%s</div>`, html.EscapeString(code)),
			fmt.Sprintf("<p><strong>This code will expire in %d minutes.</strong></p>", ttlMinutes),
			"<p>If you didn't make this request, you can ignore this email.</p>",
		},
		[]string{
			greeting(name),
			fmt.Sprintf("Use the code below to confirm your %s:", action.Label()),
			"Your verification code: " + code,
			fmt.Sprintf("This code will expire in %d minutes.", ttlMinutes),
			"If you didn't make this request, you can ignore this email.",
		},
	)
}

func (t EmailTemplates) RequestApproved(name string, action models.ActionType) Message {
	return t.render(
		fmt.Sprintf("Your %s was approved", action.Label()),
		"Request approved",
		[]string{
			"<p>" + html.EscapeString(greeting(name)) + "</p>",
			fmt.Sprintf("<p>Your %s has been reviewed and approved.</p>", html.EscapeString(action.Label())),
			"<p>Thank you for sharing with our prayer community.</p>",
		},
		[]string{
			greeting(name),
			fmt.Sprintf("Your %s has been reviewed and approved.", action.Label()),
			"Thank you for sharing with our prayer community.",
		},
	)
}

func (t EmailTemplates) RequestDenied(name string, action models.ActionType, reason string) Message {
	return t.render(
		fmt.Sprintf("Your %s was not approved", action.Label()),
		"Request not approved",
		[]string{
			"<p>" + html.EscapeString(greeting(name)) + "</p>",
			fmt.Sprintf("<p>Your %s was reviewed and could not be approved.</p>", html.EscapeString(action.Label())),
			`<p class="quote">` + html.EscapeString(reason) + "</p>",
			"<p>You are welcome to submit again or contact the church office.</p>",
		},
		[]string{
			greeting(name),
			fmt.Sprintf("Your %s was reviewed and could not be approved.", action.Label()),
			"Reason: " + reason,
			"You are welcome to submit again or contact the church office.",
		},
	)
}

func (t EmailTemplates) Reminder(prayer models.Prayer, lastActivity time.Time) Message {
	days := int(time.Since(lastActivity).Hours() / 24)
	return t.render(
		fmt.Sprintf("How is your prayer request \"%s\"?", prayer.Title),
		"Prayer check-in",
		[]string{
			"<p>" + html.EscapeString(greeting(prayer.Name)) + "</p>",
			fmt.Sprintf("<p>It has been %d days since your prayer request <strong>\"%s\"</strong> was last updated.</p>",
				days, html.EscapeString(prayer.Title)),
			"<p>We'd love to hear how things are going. You can post an update, mark the prayer as answered, or ask us to close it.</p>",
			t.siteLinkHTML(),
		},
		[]string{
			greeting(prayer.Name),
			fmt.Sprintf("It has been %d days since your prayer request \"%s\" was last updated.", days, prayer.Title),
			"We'd love to hear how things are going. You can post an update, mark the prayer as answered, or ask us to close it.",
			t.SiteURL,
		},
	)
}

func (t EmailTemplates) NewPrayer(prayer models.Prayer) Message {
	public := prayer.Public()
	return t.render(
		"New prayer request: "+public.Title,
		public.Title,
		[]string{
			fmt.Sprintf("<p>%s shared a new prayer request:</p>", html.EscapeString(public.Name)),
			`<p class="quote">` + html.EscapeString(public.Content) + "</p>",
			t.siteLinkHTML(),
		},
		[]string{
			fmt.Sprintf("%s shared a new prayer request:", public.Name),
			public.Content,
			t.SiteURL,
		},
	)
}

func (t EmailTemplates) PrayerUpdated(prayer models.Prayer, update models.PrayerUpdate) Message {
	public := prayer.Public()
	return t.render(
		"Prayer update: "+public.Title,
		public.Title,
		[]string{
			"<p>There is an update on a prayer request you follow:</p>",
			`<p class="quote">` + html.EscapeString(update.Content) + "</p>",
			t.siteLinkHTML(),
		},
		[]string{
			"There is an update on a prayer request you follow:",
			update.Content,
			t.SiteURL,
		},
	)
}

func (t EmailTemplates) siteLinkHTML() string {
	if t.SiteURL == "" {
		return ""
	}
	escaped := html.EscapeString(t.SiteURL)
	return fmt.Sprintf(`<p><a href="%s">%s</a></p>`, escaped, escaped)
}
