package email

import (
	"context"
	"log"

	"pubmarket/internal/config"
	"pubmarket/internal/models"
)

// AdminEmailGetter is an interface for getting admin emails.
type AdminEmailGetter interface {
	AdminEmails(ctx context.Context) ([]string, error)
}

// Notifier sends email notifications for marketplace events. Every method
// is best effort: failures are logged and never returned.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        AdminEmailGetter
	send      func(to []string, subject, htmlBody, textBody string)
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db AdminEmailGetter) *Notifier {
	n := &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
	}
	n.send = n.service.SendAsync
	return n
}

// NotifyPasswordReset sends the reset link to the account holder.
func (n *Notifier) NotifyPasswordReset(_ context.Context, user *models.User, token string) {
	if !n.service.IsEnabled() || user == nil || user.Email == "" || token == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.PasswordReset(user, token)
	n.send([]string{user.Email}, subject, htmlBody, textBody)
}

// NotifyListingSubmitted notifies admins that a new listing needs review.
func (n *Notifier) NotifyListingSubmitted(ctx context.Context, r *models.PublisherRequest) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyAdminsOnSubmit {
		return
	}

	emails, err := n.db.AdminEmails(ctx)
	if err != nil {
		log.Printf("Failed to get admin emails: %v", err)
		return
	}

	if len(emails) == 0 {
		log.Println("No admin emails found for notification")
		return
	}

	subject, htmlBody, textBody := n.templates.ListingSubmitted(r)
	n.send(emails, subject, htmlBody, textBody)
}

// NotifyListingApproved notifies the listing contact that it was approved.
func (n *Notifier) NotifyListingApproved(_ context.Context, r *models.PublisherRequest) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyOwnerOnApproval || r.Email == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.ListingApproved(r)
	n.send([]string{r.Email}, subject, htmlBody, textBody)
}

// NotifyListingRejected notifies the listing contact that it was rejected.
func (n *Notifier) NotifyListingRejected(_ context.Context, r *models.PublisherRequest) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyOwnerOnRejection || r.Email == "" {
		return
	}

	subject, htmlBody, textBody := n.templates.ListingRejected(r)
	n.send([]string{r.Email}, subject, htmlBody, textBody)
}

// NotifyStatusChange dispatches the approved or rejected notification for a
// listing whose status an admin just changed.
func (n *Notifier) NotifyStatusChange(ctx context.Context, r *models.PublisherRequest) {
	switch r.Status {
	case models.StatusApproved:
		n.NotifyListingApproved(ctx, r)
	case models.StatusRejected:
		n.NotifyListingRejected(ctx, r)
	}
}
