package content

import (
	"os"
	"path/filepath"
	"testing"
)

func bundledCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load("")
	if err != nil {
		t.Fatalf("load bundled catalog: %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	c := bundledCatalog(t)

	if got := c.Search("   "); len(got) != len(c.SearchEntries) || len(got) != 8 {
		t.Fatalf("blank term returned %d entries, want 8", len(got))
	}
	if got := c.Search("donat"); len(got) != 0 {
		t.Fatalf("donat matched %+v", got)
	}

	found := false
	for _, entry := range c.Search("EVENT") {
		if entry.Title == "Events" {
			found = true
			if entry.Path != "/events" {
				t.Fatalf("events path = %q", entry.Path)
			}
		}
	}
	if !found {
		t.Fatal("expected Events in results for \"event\"")
	}

	got := c.Search("reproductive")
	if len(got) != 1 || got[0].ID != "resources" {
		t.Fatalf("description match = %+v", got)
	}
}

func TestSections(t *testing.T) {
	c := bundledCatalog(t)
	amounts, err := c.Section("donation-amounts")
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	list := amounts.([]DonationImpact)
	want := []int{50, 100, 250, 500, 1000}
	if len(list) != len(want) {
		t.Fatalf("got %d amounts", len(list))
	}
	for i, amount := range want {
		if list[i].Amount != amount || list[i].Impact == "" {
			t.Fatalf("amount[%d] = %+v", i, list[i])
		}
	}
	if _, err := c.Section("pricing"); err != ErrUnknownSection {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if len(c.Programs) != 4 || c.Helpline.Phone == "" {
		t.Fatalf("unexpected catalog %+v", c)
	}
}

func TestLoadOverrideValidatesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	raw := []byte("search:\n  - id: x\n    title: X\n    path: /x\n    type: widget\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown type error")
	}
}
