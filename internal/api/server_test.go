package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anstrom/filecrate/internal/auth"
	"github.com/anstrom/filecrate/internal/config"
	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/repository"
	"github.com/anstrom/filecrate/internal/share"
	"github.com/anstrom/filecrate/internal/storage"
)

// testEnv wires the full HTTP surface against in-memory registries and an
// in-memory blob store. The share clock is mutable so expiry can be tested
// without sleeping.
type testEnv struct {
	ts    *httptest.Server
	blobs *storage.Memory
	cfg   *config.Config

	mu  sync.Mutex
	now time.Time
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Address:         ":0",
		StorageProvider: model.ProviderLocal,
		AppBaseURL:      "http://localhost:8080",
		JWTSecret:       []byte("test-secret"),
		JWTTTL:          time.Hour,
		MaxFileSize:     1 << 20,
	}
	if mutate != nil {
		mutate(cfg)
	}
	env := &testEnv{
		blobs: storage.NewMemory(),
		cfg:   cfg,
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	files := repository.NewMemoryFiles()
	router := storage.NewRouter(cfg.StorageProvider, map[model.Provider]storage.BlobStore{
		model.ProviderLocal: env.blobs,
	})
	shares := share.NewRegistry(repository.NewMemoryShares(), files, cfg.AppBaseURL, env.clock)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	srv := New(cfg, repository.NewMemoryUsers(), repository.NewMemoryInvites(), files, shares, router, tokens, nil, "")
	env.ts = httptest.NewServer(srv.Routes())
	t.Cleanup(env.ts.Close)
	return env
}

func (e *testEnv) request(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}, wantStatus int, out interface{}) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	resp := e.request(t, method, path, token, body, "application/json")
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d (body %s)", method, path, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode response: %v (body %s)", method, path, err, raw)
		}
	}
}

func (e *testEnv) register(t *testing.T, name, email string) credentialsResponse {
	t.Helper()
	var creds credentialsResponse
	e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "correct-horse",
	}, http.StatusCreated, &creds)
	return creds
}

func (e *testEnv) upload(t *testing.T, token, filename, content, collection, subCollection string) model.FileRecord {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if collection != "" {
		_ = mw.WriteField("collection", collection)
	}
	if subCollection != "" {
		_ = mw.WriteField("subCollection", subCollection)
	}
	mw.Close()

	resp := e.request(t, http.MethodPost, "/api/files/upload", token, &buf, mw.FormDataContentType())
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d (body %s)", resp.StatusCode, raw)
	}
	var rec model.FileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.request(t, http.MethodGet, "/healthz", "", nil, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	creds := env.register(t, "Ada", "ada@example.com")
	if creds.Token == "" {
		t.Fatalf("registration should return a session token")
	}
	if creds.User.Email != "ada@example.com" {
		t.Fatalf("user email %q", creds.User.Email)
	}

	// Duplicate e-mail, case-insensitively.
	env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada Again", "email": "ADA@example.com", "password": "correct-horse",
	}, http.StatusConflict, nil)

	// Short password.
	env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "short",
	}, http.StatusBadRequest, nil)

	var login credentialsResponse
	env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	}, http.StatusOK, &login)
	if login.Token == "" {
		t.Fatalf("login should return a session token")
	}

	// Wrong password and unknown account produce the same answer.
	env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-horse",
	}, http.StatusUnauthorized, nil)
	env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "correct-horse",
	}, http.StatusUnauthorized, nil)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, token := range []string{"", "garbage-token"} {
		resp := env.request(t, http.MethodGet, "/api/files", token, nil, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("token %q: status %d, want 401", token, resp.StatusCode)
		}
	}
}

func TestFileLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	creds := env.register(t, "Ada", "ada@example.com")
	token := creds.Token

	rec := env.upload(t, token, "report.txt", "quarterly numbers", "Q1", "")
	if rec.ID == "" {
		t.Fatalf("uploaded record should have an id")
	}
	if rec.Collection == nil || *rec.Collection != "Q1" {
		t.Fatalf("collection tag %v", rec.Collection)
	}
	env.upload(t, token, "notes.txt", "untagged scratch notes", "", "")

	// Listing with and without filters.
	var all []model.FileRecord
	env.doJSON(t, http.MethodGet, "/api/files", token, nil, http.StatusOK, &all)
	if len(all) != 2 {
		t.Fatalf("expected 2 files, got %d", len(all))
	}
	var q1 []model.FileRecord
	env.doJSON(t, http.MethodGet, "/api/files?collection=Q1", token, nil, http.StatusOK, &q1)
	if len(q1) != 1 || q1[0].ID != rec.ID {
		t.Fatalf("collection filter returned %+v", q1)
	}
	var byName []model.FileRecord
	env.doJSON(t, http.MethodGet, "/api/files?q=report", token, nil, http.StatusOK, &byName)
	if len(byName) != 1 || byName[0].ID != rec.ID {
		t.Fatalf("name search returned %+v", byName)
	}

	// Download returns the original bytes with download headers.
	resp := env.request(t, http.MethodGet, "/api/files/download/"+rec.ID, token, nil, "")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d", resp.StatusCode)
	}
	if string(body) != "quarterly numbers" {
		t.Fatalf("download body %q", body)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="report.txt"` {
		t.Fatalf("content disposition %q", cd)
	}

	// Rename and retag; the storage key is untouched so the download survives.
	var updated model.FileRecord
	env.doJSON(t, http.MethodPatch, "/api/files/"+rec.ID, token, map[string]string{
		"name": "report-final.txt", "collection": "Q2",
	}, http.StatusOK, &updated)
	if updated.OriginalName != "report-final.txt" {
		t.Fatalf("rename produced %q", updated.OriginalName)
	}
	if updated.Collection == nil || *updated.Collection != "Q2" {
		t.Fatalf("retag produced %v", updated.Collection)
	}
	resp = env.request(t, http.MethodGet, "/api/files/download/"+rec.ID, token, nil, "")
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "quarterly numbers" {
		t.Fatalf("download after rename: status %d body %q", resp.StatusCode, body)
	}

	// An empty update is rejected.
	env.doJSON(t, http.MethodPatch, "/api/files/"+rec.ID, token, map[string]string{}, http.StatusBadRequest, nil)

	// Delete removes blob and record; a second delete misses.
	if env.blobs.Len() != 2 {
		t.Fatalf("expected 2 blobs before delete, got %d", env.blobs.Len())
	}
	env.doJSON(t, http.MethodDelete, "/api/files/"+rec.ID, token, nil, http.StatusOK, nil)
	if env.blobs.Len() != 1 {
		t.Fatalf("expected 1 blob after delete, got %d", env.blobs.Len())
	}
	env.doJSON(t, http.MethodDelete, "/api/files/"+rec.ID, token, nil, http.StatusNotFound, nil)
	resp = env.request(t, http.MethodGet, "/api/files/download/"+rec.ID, token, nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("download after delete: status %d", resp.StatusCode)
	}
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "Ada", "ada@example.com").Token

	// Multipart body without a file part.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("collection", "Q1")
	mw.Close()
	resp := env.request(t, http.MethodPost, "/api/files/upload", token, &buf, mw.FormDataContentType())
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing file part: status %d", resp.StatusCode)
	}

	// Empty file part.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile("file", "empty.txt"); err != nil {
		t.Fatalf("create form file: %v", err)
	}
	mw.Close()
	resp = env.request(t, http.MethodPost, "/api/files/upload", token, &buf, mw.FormDataContentType())
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty file: status %d", resp.StatusCode)
	}
}

func TestOwnershipScoping(t *testing.T) {
	env := newTestEnv(t, nil)
	ada := env.register(t, "Ada", "ada@example.com").Token
	eve := env.register(t, "Eve", "eve@example.com").Token
	rec := env.upload(t, ada, "secret.txt", "top secret", "", "")

	// Another account's file looks like it does not exist: 404, never 403.
	resp := env.request(t, http.MethodGet, "/api/files/download/"+rec.ID, eve, nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign download: status %d, want 404", resp.StatusCode)
	}
	env.doJSON(t, http.MethodPatch, "/api/files/"+rec.ID, eve, map[string]string{"name": "mine-now.txt"}, http.StatusNotFound, nil)
	env.doJSON(t, http.MethodDelete, "/api/files/"+rec.ID, eve, nil, http.StatusNotFound, nil)

	var eveFiles []model.FileRecord
	env.doJSON(t, http.MethodGet, "/api/files", eve, nil, http.StatusOK, &eveFiles)
	if len(eveFiles) != 0 {
		t.Fatalf("listings must be owner-scoped, got %d entries", len(eveFiles))
	}

	// The owner still has full access.
	resp = env.request(t, http.MethodGet, "/api/files/download/"+rec.ID, ada, nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner download: status %d", resp.StatusCode)
	}
}

func TestCollectionShareFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "Ada", "ada@example.com").Token
	first := env.upload(t, token, "report.pdf", "%PDF-1.4 report body", "Q1", "")
	env.upload(t, token, "data.csv", "a,b,c", "Q1", "")
	env.upload(t, token, "private.txt", "not shared", "", "")

	var created createShareResponse
	env.doJSON(t, http.MethodPost, "/api/share", token, map[string]interface{}{
		"type": "collection", "collection": "Q1", "expiresInHours": 1,
	}, http.StatusCreated, &created)
	if created.Token == "" {
		t.Fatalf("share should carry a token")
	}
	if want := "http://localhost:8080/share/" + created.Token; created.URL != want {
		t.Fatalf("share url %q, want %q", created.URL, want)
	}

	// The share routes need no session.
	var details shareDetailsResponse
	env.doJSON(t, http.MethodGet, "/api/share/"+created.Token, "", nil, http.StatusOK, &details)
	if details.Type != model.ShareCollection {
		t.Fatalf("share type %q", details.Type)
	}
	if len(details.Files) != 2 {
		t.Fatalf("expected 2 shared files, got %d", len(details.Files))
	}

	resp := env.request(t, http.MethodGet, "/api/share/"+created.Token+"/download/"+first.ID, "", nil, "")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share download status %d", resp.StatusCode)
	}
	if string(body) != "%PDF-1.4 report body" {
		t.Fatalf("share download body %q", body)
	}

	// An upload into the collection shows up through the existing link.
	late := env.upload(t, token, "appendix.txt", "late addition", "Q1", "")
	env.doJSON(t, http.MethodGet, "/api/share/"+created.Token, "", nil, http.StatusOK, &details)
	if len(details.Files) != 3 {
		t.Fatalf("expected 3 shared files after late upload, got %d", len(details.Files))
	}
	resp = env.request(t, http.MethodGet, "/api/share/"+created.Token+"/download/"+late.ID, "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("late upload share download status %d", resp.StatusCode)
	}

	// Expiry answers 410, distinct from an unknown token's 404.
	env.advance(61 * time.Minute)
	resp = env.request(t, http.MethodGet, "/api/share/"+created.Token, "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expired share status %d, want 410", resp.StatusCode)
	}
	resp = env.request(t, http.MethodGet, "/api/share/"+created.Token+"/download/"+first.ID, "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expired share download status %d, want 410", resp.StatusCode)
	}
	resp = env.request(t, http.MethodGet, "/api/share/0123456789abcdef0123456789abcdef", "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown token status %d, want 404", resp.StatusCode)
	}
}

func TestFileShareFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "Ada", "ada@example.com").Token
	shared := env.upload(t, token, "shared.txt", "for you", "", "")
	other := env.upload(t, token, "private.txt", "not yours", "", "")

	var created createShareResponse
	env.doJSON(t, http.MethodPost, "/api/share", token, map[string]interface{}{
		"type": "file", "fileId": shared.ID,
	}, http.StatusCreated, &created)

	// Omitted TTL falls back to the default window.
	if want := env.clock().Add(share.DefaultTTLHours * time.Hour); !created.ExpiresAt.Equal(want) {
		t.Fatalf("default expiry %v, want %v", created.ExpiresAt, want)
	}

	var details shareDetailsResponse
	env.doJSON(t, http.MethodGet, "/api/share/"+created.Token, "", nil, http.StatusOK, &details)
	if details.Type != model.ShareFile || len(details.Files) != 1 || details.Files[0].ID != shared.ID {
		t.Fatalf("file share details %+v", details)
	}

	// The token grants exactly one file.
	resp := env.request(t, http.MethodGet, "/api/share/"+created.Token+"/download/"+other.ID, "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign file via share: status %d, want 404", resp.StatusCode)
	}

	// Sharing a nonexistent or foreign file fails up front.
	env.doJSON(t, http.MethodPost, "/api/share", token, map[string]interface{}{
		"type": "file", "fileId": "no-such-file",
	}, http.StatusNotFound, nil)
	env.doJSON(t, http.MethodPost, "/api/share", token, map[string]interface{}{
		"type": "bogus",
	}, http.StatusBadRequest, nil)
}

func TestShareManagement(t *testing.T) {
	env := newTestEnv(t, nil)
	ada := env.register(t, "Ada", "ada@example.com").Token
	eve := env.register(t, "Eve", "eve@example.com").Token
	rec := env.upload(t, ada, "doc.txt", "content", "", "")

	var created createShareResponse
	env.doJSON(t, http.MethodPost, "/api/share", ada, map[string]interface{}{
		"type": "file", "fileId": rec.ID,
	}, http.StatusCreated, &created)

	var grants []model.ShareGrant
	env.doJSON(t, http.MethodGet, "/api/share", ada, nil, http.StatusOK, &grants)
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(grants))
	}
	grantID := grants[0].ID

	var eveGrants []model.ShareGrant
	env.doJSON(t, http.MethodGet, "/api/share", eve, nil, http.StatusOK, &eveGrants)
	if len(eveGrants) != 0 {
		t.Fatalf("grant listing must be owner-scoped")
	}

	// Only the owner can revoke; revocation kills the token immediately.
	env.doJSON(t, http.MethodDelete, "/api/share/"+grantID, eve, nil, http.StatusNotFound, nil)
	env.doJSON(t, http.MethodDelete, "/api/share/"+grantID, ada, nil, http.StatusOK, nil)
	resp := env.request(t, http.MethodGet, "/api/share/"+created.Token, "", nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("revoked share status %d, want 404", resp.StatusCode)
	}
}

func TestInviteFlow(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.InviteAdminEmails = []string{"admin@example.com"}
	})
	admin := env.register(t, "Admin", "admin@example.com")
	if !admin.IsInviteAdmin {
		t.Fatalf("allowlisted account should be flagged as invite admin")
	}
	user := env.register(t, "Plain", "plain@example.com")
	if user.IsInviteAdmin {
		t.Fatalf("regular account must not be an invite admin")
	}

	// Only allowlisted accounts mint codes.
	env.doJSON(t, http.MethodPost, "/api/invites", user.Token, map[string]int{"count": 1}, http.StatusForbidden, nil)

	var invites []model.InviteCode
	env.doJSON(t, http.MethodPost, "/api/invites", admin.Token, map[string]int{"count": 2}, http.StatusCreated, &invites)
	if len(invites) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(invites))
	}
	code := invites[0].Code
	if len(code) != 10 {
		t.Fatalf("invite code %q has unexpected shape", code)
	}

	// Registration consumes the code; a second use is rejected.
	env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Guest", "email": "guest@example.com", "password": "correct-horse", "inviteCode": code,
	}, http.StatusCreated, nil)
	env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Freeloader", "email": "free@example.com", "password": "correct-horse", "inviteCode": code,
	}, http.StatusForbidden, nil)

	// The listing shows who burned the code.
	var listed []model.InviteCode
	env.doJSON(t, http.MethodGet, "/api/invites", admin.Token, nil, http.StatusOK, &listed)
	used := 0
	for _, inv := range listed {
		if inv.UsedBy != nil {
			used++
		}
	}
	if used != 1 {
		t.Fatalf("expected exactly 1 used invite, got %d", used)
	}
}

// faultyInvites simulates a backend outage on code lookup.
type faultyInvites struct {
	*repository.MemoryInvites
}

func (f *faultyInvites) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	return nil, errors.New("invite lookup: connection refused")
}

func TestRegisterInviteLookupFailure(t *testing.T) {
	cfg := &config.Config{
		Address:         ":0",
		StorageProvider: model.ProviderLocal,
		AppBaseURL:      "http://localhost:8080",
		JWTSecret:       []byte("test-secret"),
		JWTTTL:          time.Hour,
		MaxFileSize:     1 << 20,
	}
	files := repository.NewMemoryFiles()
	router := storage.NewRouter(cfg.StorageProvider, map[model.Provider]storage.BlobStore{
		model.ProviderLocal: storage.NewMemory(),
	})
	shares := share.NewRegistry(repository.NewMemoryShares(), files, cfg.AppBaseURL, nil)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	srv := New(cfg, repository.NewMemoryUsers(), &faultyInvites{repository.NewMemoryInvites()},
		files, shares, router, tokens, nil, "")
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	payload, _ := json.Marshal(map[string]string{
		"name": "Guest", "email": "guest@example.com", "password": "correct-horse", "inviteCode": "ABCDEFGHIJ",
	})
	resp, err := ts.Client().Post(ts.URL+"/api/auth/register", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer resp.Body.Close()
	// A backend outage is not an invalid code: the caller gets a server
	// error, not a forbidden.
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("invite lookup outage: status %d, want 500", resp.StatusCode)
	}
}

func TestRequireInviteMode(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.RequireInvite = true
		cfg.InviteAdminEmails = []string{"admin@example.com"}
	})

	// Without a code, registration is closed.
	env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Walkin", "email": "walkin@example.com", "password": "correct-horse",
	}, http.StatusForbidden, nil)
	env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Guesser", "email": "guess@example.com", "password": "correct-horse", "inviteCode": "WRONGCODE1",
	}, http.StatusForbidden, nil)
}

func TestExpiredSessionRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "Ada", "ada@example.com")

	expired := auth.NewTokens(env.cfg.JWTSecret, -time.Hour)
	stale, err := expired.Issue("some-user", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp := env.request(t, http.MethodGet, "/api/files", stale, nil, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired session status %d, want 401", resp.StatusCode)
	}
}
