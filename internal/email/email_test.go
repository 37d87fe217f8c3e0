package email

import (
	"strings"
	"testing"

	"pubmarket/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name: "enabled when all SMTP settings configured",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: true,
		},
		{
			name: "disabled when SMTPEnabled is false",
			cfg: &config.Config{
				SMTPEnabled: false,
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "disabled when SMTPHost is empty",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "disabled when SMTPFrom is empty",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
			},
			wantEnabled: false,
		},
		{
			name:        "disabled with empty config",
			cfg:         &config.Config{},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.cfg)
			if svc.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", svc.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestService_Send_Disabled(t *testing.T) {
	svc := NewService(&config.Config{SMTPEnabled: false})

	if err := svc.Send([]string{"test@example.com"}, "Test", "<p>HTML</p>", "Text"); err != nil {
		t.Errorf("Send() with disabled service error = %v, want nil", err)
	}
}

func TestService_Send_NoRecipients(t *testing.T) {
	svc := NewService(&config.Config{
		SMTPEnabled: true,
		SMTPHost:    "smtp.invalid",
		SMTPFrom:    "noreply@example.com",
	})

	if err := svc.Send(nil, "Test", "<p>HTML</p>", "Text"); err != nil {
		t.Errorf("Send() without recipients error = %v, want nil", err)
	}
}

func TestService_BuildMessage(t *testing.T) {
	svc := NewService(&config.Config{
		SMTPFrom:     "noreply@example.com",
		SMTPFromName: "PubMarket",
	})

	msg := svc.buildMessage([]string{"a@example.com", "b@example.com"}, "Hello\r\nBcc: evil@example.com", "<p>Hi</p>", "Hi")

	checks := []string{
		"From: PubMarket <noreply@example.com>\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: Hello Bcc: evil@example.com\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"<p>Hi</p>",
		"--" + boundary + "--\r\n",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("buildMessage() missing %q", check)
		}
	}
	if strings.Contains(msg, "\r\nBcc:") {
		t.Error("buildMessage() allowed header injection through the subject")
	}
}

func TestService_BuildMessage_TextOnly(t *testing.T) {
	svc := NewService(&config.Config{SMTPFrom: "noreply@example.com"})

	msg := svc.buildMessage([]string{"a@example.com"}, "Subject", "", "Plain")

	if !strings.Contains(msg, "From: noreply@example.com\r\n") {
		t.Error("buildMessage() should use the bare address without a from name")
	}
	if strings.Contains(msg, "text/html") {
		t.Error("buildMessage() should omit the HTML part when empty")
	}
}

func TestService_SendAsync_Disabled(t *testing.T) {
	svc := NewService(&config.Config{})

	// Should return immediately without spawning a sender
	svc.SendAsync([]string{"test@example.com"}, "Test", "<p>HTML</p>", "Text")
}
