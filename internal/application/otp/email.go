package otp

import "fmt"

// codeEmail renders the verification-code message.
func codeEmail(code string) (subject, html string) {
	subject = "Your verification code"
	html = fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Verify your email</h2>
  <p>Enter this code to finish setting up your account:</p>
  <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">%s</p>
  <p>The code expires in 10 minutes. If you didn't request it, you can ignore this email.</p>
</div>`, code)
	return subject, html
}
