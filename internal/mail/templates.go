package mail

import (
	"fmt"
	"html"
)

// VerificationEmail renders the subject and body of the email-verification
// message. The URL embeds the raw side-channel token.
func VerificationEmail(name, verificationURL string) (subject, htmlBody string) {
	subject = "Email Verification"
	htmlBody = fmt.Sprintf(`<h1>Email Verification</h1>
<p>Hi %s,</p>
<p>Please click the link below to verify your email address:</p>
<a href="%s">Verify Email</a>
<p>This link will expire in 24 hours.</p>
<p>If you did not create an account, please ignore this email.</p>`, html.EscapeString(name), verificationURL)
	return subject, htmlBody
}

// ResetEmail renders the subject and body of the password-reset message.
func ResetEmail(name, resetURL string) (subject, htmlBody string) {
	subject = "Password Reset Request"
	htmlBody = fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>Hi %s,</p>
<p>You requested a password reset. Click the link below to reset your password:</p>
<a href="%s">Reset Password</a>
<p>This link will expire in 10 minutes.</p>
<p>If you did not request this, please ignore this email.</p>`, html.EscapeString(name), resetURL)
	return subject, htmlBody
}
