package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"
)

// VerificationEmail holds what an authority needs to review one hazard.
type VerificationEmail struct {
	To          string
	HazardID    string
	HazardType  string
	Latitude    float64
	Longitude   float64
	Token       string
	ExpiresAt   time.Time
	FrontendURL string
}

// Link is the frontend page that redeems the token.
func (v VerificationEmail) Link() string {
	q := url.Values{}
	q.Set("hazard_id", v.HazardID)
	q.Set("token", v.Token)
	return strings.TrimRight(v.FrontendURL, "/") + "/verify?" + q.Encode()
}

// Subject names the report by a short id prefix only; hazard details stay
// out of subject lines.
func (v VerificationEmail) Subject() string {
	short := v.HazardID
	if len(short) > 8 {
		short = short[:8]
	}
	return "SafeRoute: Verify Hazard Report #" + short
}

var verificationText = texttemplate.Must(texttemplate.New("text").Parse(`SafeRoute Hazard Verification Request

A new hazard report has been submitted and requires your verification.

Hazard ID: {{.HazardID}}
Type: {{.HazardType}}
Location: {{.Location}}

To review and verify this report, open the link below:
{{.Link}}

This verification link expires at: {{.Expires}}

If you did not request this, please disregard this email.

---
SafeRoute Team
`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("html").Parse(`<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <h2>SafeRoute Hazard Verification Request</h2>
    <p>A new hazard report has been submitted and requires your verification.</p>
    <table style="border-collapse: collapse; margin: 20px 0;">
      <tr><td style="padding: 8px; font-weight: bold;">Hazard ID:</td><td style="padding: 8px;">{{.HazardID}}</td></tr>
      <tr><td style="padding: 8px; font-weight: bold;">Type:</td><td style="padding: 8px;">{{.HazardType}}</td></tr>
      <tr><td style="padding: 8px; font-weight: bold;">Location:</td><td style="padding: 8px;">{{.Location}}</td></tr>
    </table>
    <p style="margin: 20px 0;">
      <a href="{{.Link}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Review &amp; Verify Report</a>
    </p>
    <p style="font-size: 12px; color: #666;">This link expires at: <strong>{{.Expires}}</strong></p>
    <p style="font-size: 12px; color: #999; margin-top: 30px;">If you did not request this, please disregard this email.<br>SafeRoute Team</p>
  </body>
</html>
`))

// Build renders the multipart bodies.
func (v VerificationEmail) Build() (EmailMessage, error) {
	data := struct {
		HazardID   string
		HazardType string
		Location   string
		Link       string
		Expires    string
	}{
		HazardID:   v.HazardID,
		HazardType: v.HazardType,
		Location:   fmt.Sprintf("%g, %g", v.Latitude, v.Longitude),
		Link:       v.Link(),
		Expires:    v.ExpiresAt.UTC().Format(time.RFC3339),
	}

	var text, html bytes.Buffer
	if err := verificationText.Execute(&text, data); err != nil {
		return EmailMessage{}, fmt.Errorf("render text body: %w", err)
	}
	if err := verificationHTML.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("render html body: %w", err)
	}

	return EmailMessage{
		To:      v.To,
		Subject: v.Subject(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
