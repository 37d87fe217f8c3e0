package email

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"pubmarket/internal/config"
	"pubmarket/internal/models"
)

func testTemplates() *Templates {
	return NewTemplates(&config.Config{
		SiteTitle: "PubMarket",
		ClientURL: "https://app.example.com",
	})
}

func testListing() *models.PublisherRequest {
	return &models.PublisherRequest{
		ID:          uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		CompanyName: "Example <Media>",
		Website:     "https://example.com",
		Category:    "Technology",
		GrayNiches:  []string{"Crypto/Forex"},
		Pricing:     models.Pricing{StandardPostPrice: 50, GrayNichePrice: 80},
		Status:      models.StatusPending,
		WebsiteAnalysis: &models.WebsiteAnalysis{
			TrustScore: 72,
		},
	}
}

func TestTemplates_BaseHTML(t *testing.T) {
	tmpl := testTemplates()

	html := tmpl.baseHTML("Test Title", "<p>Test content</p>")

	checks := []string{
		"<!DOCTYPE html>",
		"<title>Test Title</title>",
		"PubMarket",
		"https://app.example.com",
		"<p>Test content</p>",
	}
	for _, check := range checks {
		if !strings.Contains(html, check) {
			t.Errorf("baseHTML missing %q", check)
		}
	}
}

func TestTemplates_BaseHTML_EscapesHTML(t *testing.T) {
	tmpl := NewTemplates(&config.Config{
		SiteTitle: "<script>alert('xss')</script>",
		ClientURL: "https://app.example.com",
	})

	html := tmpl.baseHTML("Test", "Content")

	if strings.Contains(html, "<script>") {
		t.Error("baseHTML should escape HTML in site title")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("baseHTML should contain escaped script tag")
	}
}

func TestTemplates_PasswordReset(t *testing.T) {
	tmpl := testTemplates()
	user := &models.User{FullName: "Jane Doe", Email: "jane@example.com"}

	subject, htmlBody, textBody := tmpl.PasswordReset(user, "abc123")

	if subject != "[PubMarket] Reset your password" {
		t.Errorf("subject = %q", subject)
	}
	link := "https://app.example.com/reset-password/abc123"
	if !strings.Contains(htmlBody, link) {
		t.Errorf("HTML body missing reset link %q", link)
	}
	if !strings.Contains(textBody, link) {
		t.Errorf("text body missing reset link %q", link)
	}
	if !strings.Contains(textBody, "Hi Jane Doe") {
		t.Error("text body missing greeting")
	}
}

func TestTemplates_ListingSubmitted(t *testing.T) {
	tmpl := testTemplates()
	r := testListing()

	subject, htmlBody, textBody := tmpl.ListingSubmitted(r)

	if !strings.Contains(subject, "https://example.com") {
		t.Errorf("subject = %q, want website", subject)
	}

	htmlChecks := []string{
		"Example &lt;Media&gt;",
		"Crypto/Forex",
		"$50 - $80",
		"72 (High)",
		"https://app.example.com/admin/publisher-requests/11111111-2222-3333-4444-555555555555",
	}
	for _, check := range htmlChecks {
		if !strings.Contains(htmlBody, check) {
			t.Errorf("HTML body missing %q", check)
		}
	}
	if strings.Contains(htmlBody, "Example <Media>") {
		t.Error("HTML body should escape the company name")
	}

	if !strings.Contains(textBody, "Company: Example <Media>") {
		t.Error("text body should carry the raw company name")
	}
}

func TestTemplates_ListingSubmitted_NoAnalysis(t *testing.T) {
	tmpl := testTemplates()
	r := testListing()
	r.WebsiteAnalysis = nil
	r.GrayNiches = nil

	_, _, textBody := tmpl.ListingSubmitted(r)

	if !strings.Contains(textBody, "Trust score: 0 (Low)") {
		t.Error("text body should report a zero trust score without analysis")
	}
	if !strings.Contains(textBody, "Gray niches: None") {
		t.Error("text body should report no gray niches")
	}
}

func TestTemplates_ListingApproved(t *testing.T) {
	tmpl := testTemplates()
	r := testListing()
	r.Status = models.StatusApproved

	_, htmlBody, textBody := tmpl.ListingApproved(r)
	if strings.Contains(textBody, "Notes:") {
		t.Error("text body should omit empty notes")
	}
	if !strings.Contains(htmlBody, "Approved") {
		t.Error("HTML body missing status")
	}

	notes := "Welcome aboard"
	r.AdminNotes = &notes
	_, _, textBody = tmpl.ListingApproved(r)
	if !strings.Contains(textBody, "Notes: Welcome aboard") {
		t.Error("text body missing admin notes")
	}
}

func TestTemplates_ListingRejected(t *testing.T) {
	tmpl := testTemplates()
	r := testListing()
	reason := "Traffic <unverifiable>"
	r.Status = models.StatusRejected
	r.RejectionReason = &reason

	subject, htmlBody, textBody := tmpl.ListingRejected(r)

	if !strings.Contains(subject, "was not approved") {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(htmlBody, "Traffic &lt;unverifiable&gt;") {
		t.Error("HTML body should contain the escaped reason")
	}
	if !strings.Contains(textBody, "Reason: Traffic <unverifiable>") {
		t.Error("text body missing reason")
	}
	if !strings.Contains(textBody, "/publisher/requests/11111111-2222-3333-4444-555555555555") {
		t.Error("text body missing edit link")
	}
}
