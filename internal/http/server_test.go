package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ssfatpf-backend-go/internal/config"
	"ssfatpf-backend-go/internal/content"
	"ssfatpf-backend-go/internal/models"
	"ssfatpf-backend-go/internal/storage"
	"ssfatpf-backend-go/internal/store"
)

const (
	adminEmail    = "admin@ssfatpf.org"
	adminPassword = "admin-pass-123"
)

type testEnv struct {
	t      *testing.T
	server *Server
	mem    *store.Memory
	ts     *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mediaDir := t.TempDir()
	cfg := config.Config{
		AppEnv:                 "test",
		JWTSecret:              "test-secret",
		JWTIssuer:              "test",
		AccessTTLSeconds:       3600,
		RefreshTTLSeconds:      7200,
		MediaStoragePath:       mediaDir,
		MediaPublicBaseURL:     "/media",
		DashboardSampleSeconds: 5,
	}
	catalog, err := content.Load("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	objects, err := storage.NewFileStore(mediaDir, cfg.MediaPublicBaseURL)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	mem := store.NewMemory()
	server := NewServer(cfg, mem, objects, catalog)
	if err := server.Identity.EnsureSuperAdmin(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, server: server, mem: mem, ts: ts}
}

func (e *testEnv) do(method, path, token string, body interface{}, headers ...string) *http.Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		e.t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	e.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func (e *testEnv) login(email, password string) string {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password})
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("login status = %d", resp.StatusCode)
	}
	return decode[TokenResponse](e.t, resp).AccessToken
}

func TestPublicSearch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/public/search?q=donat", "", nil)
	if got := decode[itemsResponse[content.SearchEntry]](t, resp); len(got.Items) != 0 {
		t.Fatalf("donat matched %d entries", len(got.Items))
	}

	resp = env.do(http.MethodGet, "/api/public/search?q=EVENT", "", nil)
	found := false
	for _, entry := range decode[itemsResponse[content.SearchEntry]](t, resp).Items {
		if entry.Title == "Events" && entry.Path == "/events" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected Events entry for 'event'")
	}
}

func TestDonationSubmitAndStats(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/public/donations", "", map[string]interface{}{
		"amount": 0, "donor_name": "Thandi", "donor_email": "thandi@example.org", "payment_method": "card",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero amount status = %d", resp.StatusCode)
	}
	if res := decode[map[string]interface{}](t, resp); res["success"] != false || res["error"] == "" {
		t.Fatalf("result = %+v", res)
	}

	resp = env.do(http.MethodPost, "/api/public/donations", "", map[string]interface{}{
		"amount": 500, "donor_name": "Thandi", "donor_email": "thandi@example.org", "payment_method": "card",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("donation status = %d", resp.StatusCode)
	}

	resp = env.do(http.MethodGet, "/api/public/donations/stats", "", nil)
	stats := decode[models.DonationStats](t, resp)
	if stats.DonationCount != 1 || stats.TotalDonations != 500 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStatsReadTheBackendAggregate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Rows written behind the trackers' back, as another instance would.
	if err := env.mem.InsertDonation(ctx, &models.Donation{Amount: 75, DonorName: "Ayanda", DonorEmail: "ayanda@example.org", PaymentMethod: "eft"}); err != nil {
		t.Fatalf("insert donation: %v", err)
	}
	when, _ := time.Parse("2006-01-02", "2024-06-01")
	if err := env.mem.InsertEvent(ctx, &models.Event{Title: "Partner meeting", EventDate: when, EventType: "partnership", PeopleReached: 30}); err != nil {
		t.Fatalf("insert event: %v", err)
	}

	donations := decode[models.DonationStats](t, env.do(http.MethodGet, "/api/public/donations/stats", "", nil))
	if donations.DonationCount != 1 || donations.TotalDonations != 75 {
		t.Fatalf("donation stats = %+v", donations)
	}
	events := decode[models.EventStats](t, env.do(http.MethodGet, "/api/public/events/stats", "", nil))
	if events.TotalEvents != 1 || events.TotalPeopleReached != 30 {
		t.Fatalf("event stats = %+v", events)
	}
}

func TestIntakeForms(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/public/forms/sponsor", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown kind status = %d", resp.StatusCode)
	}

	resp = env.do(http.MethodPost, "/api/public/forms/volunteer", "", map[string]interface{}{
		"name": "Sipho", "phone": "0820000000", "area": "counseling",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing email status = %d", resp.StatusCode)
	}
	if body := decode[ErrorResponse](t, resp); body.Field != "email" {
		t.Fatalf("error = %+v", body)
	}

	resp = env.do(http.MethodPost, "/api/public/forms/volunteer", "", map[string]interface{}{
		"name": "Sipho", "email": "sipho@example.org", "phone": "0820000000", "area": "counseling", "backgroundCheck": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}

	token := env.login(adminEmail, adminPassword)
	resp = env.do(http.MethodGet, "/api/admin/applications/volunteer", token, nil)
	apps := decode[itemsResponse[models.Application]](t, resp)
	if len(apps.Items) != 1 || apps.Items[0].Fields["background_check"] != "true" {
		t.Fatalf("applications = %+v", apps)
	}
}

func TestAdminGuard(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/admin/events", "", nil, "Accept", "text/html")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != loginPath {
		t.Fatalf("html navigation = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = env.do(http.MethodGet, "/api/admin/events", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("api status = %d", resp.StatusCode)
	}
	if body := decode[ErrorResponse](t, resp); body.Redirect != loginPath {
		t.Fatalf("body = %+v", body)
	}

	if _, err := env.server.Identity.CreateUser(context.Background(), "viewer@ssfatpf.org", "viewer-pass", "Viewer", models.RoleViewer); err != nil {
		t.Fatalf("viewer: %v", err)
	}
	viewer := env.login("viewer@ssfatpf.org", "viewer-pass")
	resp = env.do(http.MethodGet, "/api/admin/events", viewer, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer status = %d", resp.StatusCode)
	}

	if _, err := env.server.Identity.CreateUser(context.Background(), "editor@ssfatpf.org", "editor-pass", "Editor", models.RoleContentEditor); err != nil {
		t.Fatalf("editor: %v", err)
	}
	editor := env.login("editor@ssfatpf.org", "editor-pass")
	if resp := env.do(http.MethodGet, "/api/admin/events", editor, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("editor status = %d", resp.StatusCode)
	}
	if resp := env.do(http.MethodGet, "/api/admin/profiles", editor, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("editor profiles status = %d", resp.StatusCode)
	}
	admin := env.login(adminEmail, adminPassword)
	if resp := env.do(http.MethodGet, "/api/admin/profiles", admin, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin profiles status = %d", resp.StatusCode)
	}
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(adminEmail, adminPassword)

	resp := env.do(http.MethodPost, "/api/admin/posts", token, map[string]interface{}{
		"title": "Hope after loss", "content": "# Healing\n\nWe walk together.", "category": "impact", "tags": "grief, support,",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	post := decode[models.BlogPost](t, resp)
	if post.Slug != "hope-after-loss" || post.Status != models.PostDraft || post.PublishedAt != nil {
		t.Fatalf("post = %+v", post)
	}

	if resp := env.do(http.MethodGet, "/api/public/posts/hope-after-loss", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("draft visible publicly: %d", resp.StatusCode)
	}

	resp = env.do(http.MethodPut, "/api/admin/posts/"+post.ID+"/status", token, StatusRequest{Status: models.PostArchived})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("draft->archived status = %d", resp.StatusCode)
	}
	resp = env.do(http.MethodPut, "/api/admin/posts/"+post.ID+"/status", token, StatusRequest{Status: models.PostPublished})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d", resp.StatusCode)
	}

	resp = env.do(http.MethodGet, "/api/public/posts/hope-after-loss", "", nil)
	public := decode[map[string]interface{}](t, resp)
	if html, _ := public["html"].(string); !strings.Contains(html, "<h1") {
		t.Fatalf("rendered html = %q", public["html"])
	}
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestMediaUploadServesFiles(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(adminEmail, adminPassword)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range map[string]string{"title": "Community walk", "event_date": "2024-03-01", "event_type": "community_outreach", "people_reached": "120"} {
		_ = mw.WriteField(key, value)
	}
	part, err := mw.CreateFormFile("files", "walk.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(pngBytes)
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, env.ts.URL+"/api/admin/media/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d: %s", resp.StatusCode, raw)
	}
	var result struct {
		Event models.Event   `json:"event"`
		Media []models.Media `json:"media"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Media) != 1 || result.Media[0].FileType != "image/png" {
		t.Fatalf("media = %+v", result.Media)
	}

	file := env.do(http.MethodGet, result.Media[0].FileURL, "", nil)
	raw, _ := io.ReadAll(file.Body)
	if file.StatusCode != http.StatusOK || !bytes.Equal(raw, pngBytes) {
		t.Fatalf("served file = %d (%d bytes)", file.StatusCode, len(raw))
	}

	stats := env.do(http.MethodGet, "/api/public/events/stats", "", nil)
	if got := decode[models.EventStats](t, stats); got.TotalEvents != 1 || got.TotalPeopleReached != 120 {
		t.Fatalf("event stats = %+v", got)
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/public/contact", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/public/contact", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("other client limited: %d", rec.Code)
	}
}

func TestTrimStringKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "  /events  ", max: 64, want: "/events"},
		{in: "João", max: 3, want: "Jo"},
		{in: "João", max: 4, want: "Joã"},
		{in: "€€", max: 5, want: "€"},
		{in: "bad\xffbyte", max: 64, want: "badbyte"},
	}
	for _, tt := range tests {
		got := trimString(tt.in, tt.max)
		if got != tt.want || !utf8.ValidString(got) {
			t.Fatalf("trimString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
