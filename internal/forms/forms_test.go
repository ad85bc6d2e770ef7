package forms

import (
	"context"
	"errors"
	"testing"

	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/store"
)

// countingInbox records inserts so tests can assert nothing reached the store.
type countingInbox struct {
	*store.Memory
	inserts int
}

func (c *countingInbox) InsertApplication(ctx context.Context, table string, fields map[string]string) (models.Application, error) {
	c.inserts++
	return c.Memory.InsertApplication(ctx, table, fields)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		values map[string]string
		field  string
	}{
		{"missing required", KindVolunteer, map[string]string{"name": "Ayanda", "email": "a@x.org"}, "phone"},
		{"blank after trim", KindPartner, map[string]string{"name": "  ", "organization": "Clinic", "email": "a@x.org"}, "name"},
		{"bad email", KindFundraising, map[string]string{"name": "Ayanda", "email": "not-an-email"}, "email"},
		{"unknown option", KindEventOrganizer, map[string]string{"name": "A", "email": "a@x.org", "availability": "always"}, "availability"},
		{"unknown field", KindVolunteer, map[string]string{"name": "A", "email": "a@x.org", "phone": "0820000000", "salary": "1"}, "salary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox := &countingInbox{Memory: store.NewMemory()}
			r := NewRegistry(inbox)
			_, _, err := r.Submit(context.Background(), tt.kind, tt.values)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
			if inbox.inserts != 0 {
				t.Fatal("store should not be called on invalid input")
			}
		})
	}
}

func TestSubmitWritesMappedColumns(t *testing.T) {
	inbox := &countingInbox{Memory: store.NewMemory()}
	r := NewRegistry(inbox)
	ctx := context.Background()

	app, note, err := r.Submit(ctx, KindVolunteer, map[string]string{
		"name":            " Ayanda Khumalo ",
		"email":           "ayanda@example.org",
		"phone":           "+27 82 000 0000",
		"area":            "counseling",
		"backgroundCheck": "1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if note.Title != "Application Submitted!" {
		t.Fatalf("notification = %+v", note)
	}
	if app.Kind != KindVolunteer || app.Status != models.InboxNew {
		t.Fatalf("application = %+v", app)
	}
	if app.Fields["full_name"] != "Ayanda Khumalo" || app.Fields["background_check"] != "true" {
		t.Fatalf("fields = %+v", app.Fields)
	}
	if _, ok := app.Fields["experience"]; ok {
		t.Fatal("empty optional fields should be omitted")
	}

	listed, err := r.List(ctx, KindVolunteer)
	if err != nil || len(listed) != 1 || listed[0].Kind != KindVolunteer {
		t.Fatalf("list = %+v, %v", listed, err)
	}
	if err := r.SetStatus(ctx, KindVolunteer, app.ID, "approved"); err == nil {
		t.Fatal("expected invalid status error")
	}
	if err := r.SetStatus(ctx, KindVolunteer, app.ID, models.InboxReviewed); err != nil {
		t.Fatalf("set status: %v", err)
	}
}

func TestUnknownKind(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	if _, err := r.Get("sponsor"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if got := r.Kinds(); len(got) != 4 {
		t.Fatalf("kinds = %v", got)
	}
}

func TestDefinitionsTargetIntakeTables(t *testing.T) {
	for _, def := range definitions {
		if !store.ApplicationTables[def.Table] {
			t.Errorf("%s writes to unknown table %s", def.Kind, def.Table)
		}
		for _, field := range def.Fields {
			if field.Column == "" || field.Label == "" {
				t.Errorf("%s.%s is missing column or label", def.Kind, field.Key)
			}
		}
	}
}

func TestSubmitContact(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(store.NewMemory())

	tests := []struct {
		name  string
		in    ContactInput
		field string
	}{
		{"missing name", ContactInput{Email: "a@example.org", Message: "hi"}, "full_name"},
		{"bad email", ContactInput{FullName: "A", Email: "nope", Message: "hi"}, "email"},
		{"blank message", ContactInput{FullName: "A", Email: "a@example.org", Message: "  "}, "message"},
		{"unknown type", ContactInput{FullName: "A", Email: "a@example.org", Message: "hi", MessageType: "spam"}, "message_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.SubmitContact(ctx, tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err = %v, want field %s", err, tt.field)
			}
		})
	}

	msg, note, err := r.SubmitContact(ctx, ContactInput{FullName: " Lerato ", Email: "lerato@example.org", Message: "Can we book a talk?"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg.FullName != "Lerato" || msg.MessageType == nil || *msg.MessageType != "general" || note.Title == "" {
		t.Fatalf("message = %+v note = %+v", msg, note)
	}
	if err := r.SetContactStatus(ctx, msg.ID, models.InboxArchived); err != nil {
		t.Fatalf("set status: %v", err)
	}
	listed, err := r.Contacts(ctx)
	if err != nil || len(listed) != 1 || listed[0].Status != models.InboxArchived {
		t.Fatalf("contacts = %+v, %v", listed, err)
	}
}
