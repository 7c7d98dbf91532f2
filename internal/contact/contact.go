// Package contact handles the public contact form: validate, forward the
// message to the agency inbox, acknowledge the submitter and raise an
// operator notification.
package contact

import (
	"context"
	"strings"
	"time"

	"breed_site_backend/internal/email"
	"breed_site_backend/platform/apperr"
	"breed_site_backend/platform/logger"
	"breed_site_backend/platform/phone"
)

// OperatorNotifier raises a best-effort operator alert for a new enquiry.
type OperatorNotifier interface {
	Notify(ctx context.Context, kind string, data map[string]any)
}

// Submission is a validated contact form submission.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Validate enforces the required fields after trimming.
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperr.Validation("missing required field: name")
	}
	if strings.TrimSpace(s.Email) == "" {
		return apperr.Validation("missing required field: email")
	}
	if strings.TrimSpace(s.Message) == "" {
		return apperr.Validation("missing required field: message")
	}
	if s.Phone != "" && !phone.IsValid(s.Phone) {
		return apperr.Validation("invalid phone number")
	}
	return nil
}

// Service processes contact submissions.
type Service struct {
	sender      email.Sender
	notifier    OperatorNotifier
	log         *logger.Logger
	sendTimeout time.Duration
}

func NewService(sender email.Sender, notifier OperatorNotifier, log *logger.Logger, sendTimeout time.Duration) *Service {
	return &Service{
		sender:      sender,
		notifier:    notifier,
		log:         log,
		sendTimeout: sendTimeout,
	}
}

// Submit validates the submission and forwards it by mail. The configuration
// check runs before any side effect so a misconfigured deployment fails the
// whole request cleanly. The acknowledgement to the submitter and the
// operator alert are best-effort.
func (s *Service) Submit(ctx context.Context, sub *Submission) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if !s.sender.Enabled() {
		return apperr.Configuration("Email service is not configured.")
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sender.SendContactMessage(sendCtx, sub.Name, sub.Email, sub.Phone, sub.Service, sub.Message); err != nil {
		if apperr.Is(err, apperr.KindConfiguration) {
			return err
		}
		return apperr.Wrap(apperr.KindUnavailable, "failed to deliver contact message: "+err.Error(), err)
	}

	if err := s.sender.SendContactAck(ctx, sub.Email, sub.Name); err != nil {
		s.log.Warn("contact acknowledgement failed", "email", sub.Email, "error", err.Error())
	}

	if s.notifier != nil && sub.Phone != "" {
		service := sub.Service
		if service == "" {
			service = "General Enquiry"
		}
		s.notifier.Notify(ctx, "new_client_request", map[string]any{
			"name":    sub.Name,
			"email":   sub.Email,
			"phone":   phone.NormalizeZA(sub.Phone),
			"service": service,
			"message": sub.Message,
		})
	}

	s.log.Info("contact submission processed", "email", sub.Email)
	return nil
}
