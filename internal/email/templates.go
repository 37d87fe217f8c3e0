package email

import (
	"fmt"
	"html"
	"strings"

	"pubmarket/internal/config"
	"pubmarket/internal/models"
	"pubmarket/internal/scoring"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .button { display: inline-block; background: #0f766e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .success { color: #059669; }
        .error { color: #dc2626; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content,
		html.EscapeString(t.cfg.SiteTitle), t.cfg.ClientURL, t.cfg.ClientURL)
}

// footerText is the plain text signature shared by all messages.
func (t *Templates) footerText() string {
	return fmt.Sprintf("\n--\n%s\n%s", t.cfg.SiteTitle, t.cfg.ClientURL)
}

// PasswordReset generates the password reset email. The link embeds the
// plain reset token and expires after an hour.
func (t *Templates) PasswordReset(user *models.User, token string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Reset your password", t.cfg.SiteTitle)
	link := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(t.cfg.ClientURL, "/"), token)

	content := fmt.Sprintf(`
        <p>Hi %s,</p>
        <p>We received a request to reset the password for your account. The link below is valid for one hour.</p>

        <p style="text-align: center;">
            <a href="%s" class="button">Reset Password</a>
        </p>

        <p>If you did not request a reset, you can ignore this email; your password stays unchanged.</p>
    `,
		html.EscapeString(user.FullName),
		html.EscapeString(link),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Hi %s,

We received a request to reset the password for your account.
Reset it within one hour at: %s

If you did not request a reset, you can ignore this email.
%s`,
		user.FullName,
		link,
		t.footerText(),
	)

	return
}

// ListingSubmitted generates email for admins when a listing awaits review.
func (t *Templates) ListingSubmitted(r *models.PublisherRequest) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] New publisher request: %s", t.cfg.SiteTitle, r.Website)

	trust := 0
	if r.WebsiteAnalysis != nil {
		trust = r.WebsiteAnalysis.TrustScore
	}
	niches := "None"
	if len(r.GrayNiches) > 0 {
		niches = strings.Join(r.GrayNiches, ", ")
	}
	price := scoring.PriceRange(r.Pricing)

	content := fmt.Sprintf(`
        <p>A new publisher request has been submitted and requires your review.</p>

        <div class="info-box">
            <p><span class="label">Website:</span> <a href="%s">%s</a></p>
            <p><span class="label">Company:</span> %s</p>
            <p><span class="label">Category:</span> %s</p>
            <p><span class="label">Gray niches:</span> %s</p>
            <p><span class="label">Price:</span> %s</p>
            <p><span class="label">Trust score:</span> %d (%s)</p>
            <p><span class="label">Contact:</span> %s (%s)</p>
        </div>

        <p style="text-align: center;">
            <a href="%s/admin/publisher-requests/%s" class="button">Review in Dashboard</a>
        </p>
    `,
		html.EscapeString(r.Website),
		html.EscapeString(r.Website),
		html.EscapeString(r.CompanyName),
		html.EscapeString(r.Category),
		html.EscapeString(niches),
		html.EscapeString(price),
		trust,
		scoring.TrustLevel(trust),
		html.EscapeString(r.FullName),
		html.EscapeString(r.Email),
		t.cfg.ClientURL,
		r.ID,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`New publisher request pending review

Website: %s
Company: %s
Category: %s
Gray niches: %s
Price: %s
Trust score: %d (%s)
Contact: %s (%s)

Review at: %s/admin/publisher-requests/%s
%s`,
		r.Website,
		r.CompanyName,
		r.Category,
		niches,
		price,
		trust,
		scoring.TrustLevel(trust),
		r.FullName,
		r.Email,
		t.cfg.ClientURL,
		r.ID,
		t.footerText(),
	)

	return
}

// ListingApproved generates email for the publisher when a listing is approved.
func (t *Templates) ListingApproved(r *models.PublisherRequest) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your website %s has been approved!", t.cfg.SiteTitle, r.Website)

	notesHTML, notesText := optionalLine("Notes", r.AdminNotes)

	content := fmt.Sprintf(`
        <p>Great news! Your publisher request has been approved and your website is now listed in the marketplace.</p>

        <div class="info-box">
            <p><span class="label">Website:</span> %s</p>
            <p><span class="label">Status:</span> <span class="success">Approved</span></p>
            %s
        </div>

        <p style="text-align: center;">
            <a href="%s/publisher/dashboard" class="button">Open Publisher Dashboard</a>
        </p>
    `,
		html.EscapeString(r.Website),
		notesHTML,
		t.cfg.ClientURL,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Your website has been approved!

Website: %s
Status: Approved%s

Publisher dashboard: %s/publisher/dashboard
%s`,
		r.Website,
		notesText,
		t.cfg.ClientURL,
		t.footerText(),
	)

	return
}

// ListingRejected generates email for the publisher when a listing is rejected.
func (t *Templates) ListingRejected(r *models.PublisherRequest) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your website %s was not approved", t.cfg.SiteTitle, r.Website)

	reasonHTML, reasonText := optionalLine("Reason", r.RejectionReason)

	content := fmt.Sprintf(`
        <p>Unfortunately, your publisher request was not approved.</p>

        <div class="info-box">
            <p><span class="label">Website:</span> %s</p>
            <p><span class="label">Status:</span> <span class="error">Rejected</span></p>
            %s
        </div>

        <p>You can edit the request and it will be sent back for review.</p>

        <p style="text-align: center;">
            <a href="%s/publisher/requests/%s" class="button">Edit Request</a>
        </p>
    `,
		html.EscapeString(r.Website),
		reasonHTML,
		t.cfg.ClientURL,
		r.ID,
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Your website was not approved

Website: %s
Status: Rejected%s

Edit the request to send it back for review: %s/publisher/requests/%s
%s`,
		r.Website,
		reasonText,
		t.cfg.ClientURL,
		r.ID,
		t.footerText(),
	)

	return
}

func optionalLine(label string, v *string) (htmlLine, textLine string) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", ""
	}
	htmlLine = fmt.Sprintf(`<p><span class="label">%s:</span> %s</p>`, label, html.EscapeString(*v))
	textLine = fmt.Sprintf("\n%s: %s", label, *v)
	return
}
