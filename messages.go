package accounts

import (
	"bytes"
	"fmt"
	"html"
	"strings"
)

const (
	SubjectVerifyAccount   = "Verify Account"
	SubjectResetPassword   = "Reset Password"
	SubjectPasswordChanged = "Reset Password successfully"
)

// VerificationLink returns the link embedded in verification emails
func VerificationLink(domain, code string) string {
	return strings.TrimRight(domain, "/") + "/verify-now/" + code
}

// ResetPasswordLink returns the link embedded in password reset emails
func ResetPasswordLink(domain, token string) string {
	return strings.TrimRight(domain, "/") + "/reset-password-now/" + token
}

// MessageComposer builds the lifecycle emails. Bodies come from the
// email templates when a renderer is set, otherwise from inline HTML.
type MessageComposer struct {
	Domain string
	Views  ViewRenderer
	Logger Logger
}

// Verification builds the email sent after registration
func (c MessageComposer) Verification(account *Account, code string) Notification {
	link := VerificationLink(c.Domain, code)
	return Notification{
		To:      account.Email,
		Subject: SubjectVerifyAccount,
		Text:    "Please Verify Account: " + link,
		HTML: c.render(EmailViewVerify, account, link, fmt.Sprintf(
			`<div><h1>Hello, %s</h1><p>please click following link to verify your Account</p><a href="%s">Verify Now</a></div>`,
			html.EscapeString(account.Username), html.EscapeString(link),
		)),
	}
}

// PasswordReset builds the email carrying the reset link
func (c MessageComposer) PasswordReset(account *Account, token string) Notification {
	link := ResetPasswordLink(c.Domain, token)
	return Notification{
		To:      account.Email,
		Subject: SubjectResetPassword,
		Text:    "Please reset your password: " + link,
		HTML: c.render(EmailViewPasswordReset, account, link, fmt.Sprintf(
			`<div><h1>Hello, %s</h1><p>please click following link to reset your password</p>`+
				`<p>If this password reset request is not created by you then you can ignore the mail.</p>`+
				`<a href="%s">Reset Now</a></div>`,
			html.EscapeString(account.Username), html.EscapeString(link),
		)),
	}
}

// PasswordChanged builds the confirmation sent after a reset
func (c MessageComposer) PasswordChanged(account *Account) Notification {
	return Notification{
		To:      account.Email,
		Subject: SubjectPasswordChanged,
		Text:    "Your password is changed",
		HTML: c.render(EmailViewPasswordDone, account, "", fmt.Sprintf(
			`<div><h1>Hello, %s</h1><p>your password has been changed..</p>`+
				`<p>If this password reset request is not done by you then you can contact our team.</p></div>`,
			html.EscapeString(account.Username),
		)),
	}
}

func (c MessageComposer) render(view string, account *Account, link, fallback string) string {
	if c.Views == nil {
		return fallback
	}

	var buf bytes.Buffer
	err := c.Views.Render(&buf, view, map[string]any{
		"username": account.Username,
		"name":     account.Name,
		"link":     link,
	})
	if err != nil {
		normalizeLogger(c.Logger).Warn("email template render failed, using inline body", "view", view, "error", err)
		return fallback
	}

	return buf.String()
}
