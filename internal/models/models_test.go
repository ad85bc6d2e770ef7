package models

import "testing"

func TestStringMapScanDropsNulls(t *testing.T) {
	var m StringMap
	if err := m.Scan([]byte(`{"full_name":"Thandi","phone":null}`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if m["full_name"] != "Thandi" {
		t.Fatalf("full_name = %q", m["full_name"])
	}
	if _, ok := m["phone"]; ok {
		t.Fatal("null value should be dropped")
	}
}

func TestStringListScanNil(t *testing.T) {
	l := StringList{"stale"}
	if err := l.Scan(nil); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 0 {
		t.Fatalf("expected empty list, got %v", l)
	}
}
