// Package forms defines the public intake forms and writes their submissions
// to the matching application table.
package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

const (
	KindVolunteer      = "volunteer"
	KindPartner        = "partner"
	KindFundraising    = "fundraising"
	KindEventOrganizer = "event-organizer"
)

const (
	InputText     = "text"
	InputEmail    = "email"
	InputPhone    = "phone"
	InputTextarea = "textarea"
	InputSelect   = "select"
	InputCheckbox = "checkbox"
)

var ErrUnknownKind = errors.New("forms: unknown form")

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Field struct {
	Key      string   `json:"key"`
	Column   string   `json:"-"`
	Label    string   `json:"label"`
	Input    string   `json:"input"`
	Required bool     `json:"required"`
	Options  []Option `json:"options,omitempty"`
}

// Notification is the confirmation shown after a successful submission.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Definition struct {
	Kind    string       `json:"kind"`
	Title   string       `json:"title"`
	Table   string       `json:"-"`
	Fields  []Field      `json:"fields"`
	Success Notification `json:"success"`
}

// ValidationError reports the first field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = validator.New()

// Validate trims values and checks them against the definition. It returns the
// row to insert keyed by column.
func (d Definition) Validate(values map[string]string) (map[string]string, error) {
	known := make(map[string]Field, len(d.Fields))
	for _, field := range d.Fields {
		known[field.Key] = field
	}
	unknown := []string{}
	for key := range values {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{Field: unknown[0], Message: "Unknown field: " + unknown[0]}
	}

	row := make(map[string]string, len(d.Fields))
	for _, field := range d.Fields {
		value := strings.TrimSpace(values[field.Key])
		if value == "" {
			if field.Required {
				return nil, &ValidationError{Field: field.Key, Message: field.Label + " is required"}
			}
			continue
		}
		if err := checkValue(field, value); err != nil {
			return nil, err
		}
		if field.Input == InputCheckbox {
			value = normalizeCheckbox(value)
		}
		row[field.Column] = value
	}
	return row, nil
}

func checkValue(field Field, value string) error {
	switch field.Input {
	case InputEmail:
		if err := validate.Var(value, "email"); err != nil {
			return &ValidationError{Field: field.Key, Message: field.Label + " must be a valid email address"}
		}
	case InputPhone:
		if err := validate.Var(value, "min=7,max=20"); err != nil {
			return &ValidationError{Field: field.Key, Message: field.Label + " must be a valid phone number"}
		}
	case InputSelect:
		for _, option := range field.Options {
			if option.Value == value {
				return nil
			}
		}
		return &ValidationError{Field: field.Key, Message: fmt.Sprintf("%s must be one of the listed options", field.Label)}
	case InputCheckbox:
		if err := validate.Var(value, "boolean"); err != nil {
			return &ValidationError{Field: field.Key, Message: field.Label + " must be true or false"}
		}
	}
	return nil
}

func normalizeCheckbox(value string) string {
	switch strings.ToLower(value) {
	case "1", "t", "true":
		return "true"
	}
	return "false"
}

// Registry looks up form definitions and persists submissions.
type Registry struct {
	defs  map[string]Definition
	inbox store.Inbox
}

func NewRegistry(inbox store.Inbox) *Registry {
	defs := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		defs[def.Kind] = def
	}
	return &Registry{defs: defs, inbox: inbox}
}

func (r *Registry) Get(kind string) (Definition, error) {
	def, ok := r.defs[kind]
	if !ok {
		return Definition{}, ErrUnknownKind
	}
	return def, nil
}

// Kinds lists the registered form kinds in a stable order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.defs))
	for kind := range r.defs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Submit validates values before touching the store.
func (r *Registry) Submit(ctx context.Context, kind string, values map[string]string) (models.Application, Notification, error) {
	def, err := r.Get(kind)
	if err != nil {
		return models.Application{}, Notification{}, err
	}
	row, err := def.Validate(values)
	if err != nil {
		return models.Application{}, Notification{}, err
	}
	app, err := r.inbox.InsertApplication(ctx, def.Table, row)
	if err != nil {
		return models.Application{}, Notification{}, err
	}
	app.Kind = kind
	return app, def.Success, nil
}

// List returns submissions for one form kind, newest first.
func (r *Registry) List(ctx context.Context, kind string) ([]models.Application, error) {
	def, err := r.Get(kind)
	if err != nil {
		return nil, err
	}
	apps, err := r.inbox.ListApplications(ctx, def.Table)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		apps[i].Kind = kind
	}
	return apps, nil
}

func (r *Registry) SetStatus(ctx context.Context, kind, id, status string) error {
	def, err := r.Get(kind)
	if err != nil {
		return err
	}
	if !ValidInboxStatus(status) {
		return &ValidationError{Field: "status", Message: "Invalid status"}
	}
	return r.inbox.SetApplicationStatus(ctx, def.Table, id, status)
}

// ValidInboxStatus reports whether status is one of new, reviewed or archived.
func ValidInboxStatus(status string) bool {
	switch status {
	case models.InboxNew, models.InboxReviewed, models.InboxArchived:
		return true
	}
	return false
}
