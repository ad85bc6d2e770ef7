package forms

import (
	"context"
	"strings"

	"ssfatpf-backend-go/internal/models"
)

var messageTypes = map[string]bool{
	"general":     true,
	"support":     true,
	"partnership": true,
	"media":       true,
	"volunteer":   true,
}

type ContactInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	MessageType string `json:"message_type"`
}

var contactSent = Notification{
	Title:   "Message sent",
	Message: "Thank you for reaching out. We will get back to you soon.",
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// SubmitContact validates a contact message and stores it as new.
func (r *Registry) SubmitContact(ctx context.Context, in ContactInput) (models.ContactMessage, Notification, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.MessageType = strings.ToLower(strings.TrimSpace(in.MessageType))

	switch {
	case in.FullName == "":
		return models.ContactMessage{}, Notification{}, &ValidationError{Field: "full_name", Message: "Full name is required"}
	case in.Email == "":
		return models.ContactMessage{}, Notification{}, &ValidationError{Field: "email", Message: "Email is required"}
	case validate.Var(in.Email, "email") != nil:
		return models.ContactMessage{}, Notification{}, &ValidationError{Field: "email", Message: "Email must be a valid email address"}
	case in.Message == "":
		return models.ContactMessage{}, Notification{}, &ValidationError{Field: "message", Message: "Message is required"}
	case in.MessageType != "" && !messageTypes[in.MessageType]:
		return models.ContactMessage{}, Notification{}, &ValidationError{Field: "message_type", Message: "Unknown message type"}
	}
	if in.MessageType == "" {
		in.MessageType = "general"
	}
	msg := models.ContactMessage{
		FullName:    in.FullName,
		Email:       in.Email,
		Phone:       optionalString(in.Phone),
		Subject:     optionalString(in.Subject),
		Message:     in.Message,
		MessageType: optionalString(in.MessageType),
		Status:      models.InboxNew,
	}
	if err := r.inbox.InsertContact(ctx, &msg); err != nil {
		return models.ContactMessage{}, Notification{}, err
	}
	return msg, contactSent, nil
}

func (r *Registry) Contacts(ctx context.Context) ([]models.ContactMessage, error) {
	return r.inbox.ListContacts(ctx)
}

func (r *Registry) SetContactStatus(ctx context.Context, id, status string) error {
	if !ValidInboxStatus(status) {
		return &ValidationError{Field: "status", Message: "Invalid status"}
	}
	return r.inbox.SetContactStatus(ctx, id, status)
}
