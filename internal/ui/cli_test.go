package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/bitacora/internal/config"
	"github.com/javiermolinar/bitacora/internal/credentials"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/logger"
)

const testPassword = "123456"

var entryPage = template.Must(template.New("diary").Parse(`<html><body>
<h1>{{.Date}}</h1>
<textarea id="content" name="content">{{.Content}}</textarea>
</body></html>`))

func TestMain(m *testing.M) {
	keyring.MockInit()
	logger.Logger = logger.Discard()
	DisableColor()
	os.Exit(m.Run())
}

// backend mimics the diary server closely enough for the CLI.
type backend struct {
	mu       sync.Mutex
	entries  map[string]string // compact date -> text
	failPost bool
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if r.PostFormValue("password") != testPassword {
			fmt.Fprint(w, "<html>login</html>")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "auth", Value: "true", Path: "/"})
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
	mux.Handle("GET /years", b.auth(func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		seen := map[string]bool{}
		years := []string{}
		for d := range b.entries {
			if y := d[:4]; !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
		sort.Sort(sort.Reverse(sort.StringSlice(years)))
		_ = json.NewEncoder(w).Encode(years)
	}))
	mux.Handle("GET /api/diary-dates", b.auth(func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		dates := make([]string, 0, len(b.entries))
		for d := range b.entries {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		_ = json.NewEncoder(w).Encode(dates)
	}))
	mux.Handle("GET /diary/{date}", b.auth(func(w http.ResponseWriter, r *http.Request) {
		key, err := dateutil.ParseKey(r.PathValue("date"))
		if err != nil {
			http.Error(w, "bad date", http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		content := b.entries[key.Compact()]
		b.mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = entryPage.Execute(w, map[string]string{"Date": key.String(), "Content": content})
	}))
	mux.Handle("POST /diary/{date}", b.auth(func(w http.ResponseWriter, r *http.Request) {
		key, err := dateutil.ParseKey(r.PathValue("date"))
		if err != nil {
			http.Error(w, "bad date", http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failPost {
			http.Error(w, `{"error":"disk full"}`, http.StatusInternalServerError)
			return
		}
		b.entries[key.Compact()] = r.PostFormValue("content")
		fmt.Fprint(w, `{"message":"ok"}`)
	}))
	return mux
}

func (b *backend) auth(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("auth"); err != nil || ck.Value != "true" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		h(w, r)
	})
}

func (b *backend) entry(compact string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[compact]
}

type testApp struct {
	app     *App
	backend *backend
	cfg     *config.Config
}

// newTestApp wires an App against a fake backend with the password stored.
func newTestApp(t *testing.T, entries map[string]string) *testApp {
	t.Helper()
	b := &backend{entries: map[string]string{}}
	for k, v := range entries {
		b.entries[k] = v
	}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL
	cfg.Server.RequestTimeout = "2s"
	cfg.Editor.AutosaveDelay = "10ms"
	cfg.Editor.MaxRetries = 1
	cfg.Storage.DBPath = filepath.Join(dir, "bitacora.db")
	cfg.Log.Dir = dir

	if err := credentials.SetPassword(srv.URL, testPassword); err != nil {
		t.Fatalf("storing password: %v", err)
	}
	t.Cleanup(func() { _ = credentials.DeletePassword(srv.URL) })

	now := time.Date(2024, 2, 15, 9, 0, 0, 0, time.Local)
	app := NewApp(cfg,
		WithConfigPath(filepath.Join(dir, "config.toml")),
		WithNow(func() time.Time { return now }))
	t.Cleanup(func() { _ = app.Close() })
	return &testApp{app: app, backend: b, cfg: cfg}
}

func (ta *testApp) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	ta.app.root.SetOut(&out)
	ta.app.root.SetErr(&out)
	ta.app.root.SetIn(strings.NewReader(stdin))
	ta.app.SetArgs(args)
	err := ta.app.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	ta := newTestApp(t, nil)
	out, err := ta.run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "bitacora dev") {
		t.Errorf("output = %q", out)
	}
}

func TestLogConfig_TUIKeepsStderrFree(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.app.debug = true

	tests := []struct {
		args       []string
		wantStderr bool
	}{
		{args: nil, wantStderr: false},
		{args: []string{"open"}, wantStderr: false},
		{args: []string{"calendar"}, wantStderr: true},
		{args: []string{"cache", "list"}, wantStderr: true},
	}
	for _, tt := range tests {
		cmd, _, err := ta.app.root.Find(tt.args)
		if err != nil {
			t.Fatalf("finding %v: %v", tt.args, err)
		}
		cfg := ta.app.logConfig(cmd)
		if !cfg.Debug {
			t.Errorf("%v: debug not set", tt.args)
		}
		if got := cfg.Stderr != nil; got != tt.wantStderr {
			t.Errorf("%v: stderr copy = %v, want %v", tt.args, got, tt.wantStderr)
		}
	}

	ta.app.debug = false
	cmd, _, _ := ta.app.root.Find([]string{"calendar"})
	if cfg := ta.app.logConfig(cmd); cfg.Stderr != nil {
		t.Error("stderr copy without --debug")
	}
}

func TestCalendar_Text(t *testing.T) {
	ta := newTestApp(t, map[string]string{"20240210": "a", "20240214": "b", "20230101": "c"})
	out, err := ta.run(t, "", "calendar", "--no-color")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	for _, want := range []string{"February 2024", "(3 entries in total)", "Mon", "Sun", "10*", "14*"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "11*") {
		t.Errorf("day without entry marked:\n%s", out)
	}
}

func TestCalendar_JSONForOtherMonth(t *testing.T) {
	ta := newTestApp(t, map[string]string{"20230101": "c", "20230115": "d", "20240210": "a"})
	out, err := ta.run(t, "", "calendar", "--year", "2023", "--month", "1", "--output", "json")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	var r monthReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if r.Year != 2023 || r.Month != 1 || r.Title != "January 2023" {
		t.Errorf("report header = %d-%d %q", r.Year, r.Month, r.Title)
	}
	if len(r.Entries) != 2 || r.Entries[0] != "2023-01-01" || r.Entries[1] != "2023-01-15" {
		t.Errorf("entries = %v", r.Entries)
	}
	// January 2023 starts on a Sunday: six leading empty cells, six weeks.
	if len(r.Weeks) != 6 || r.Weeks[0][5].Day != 0 || r.Weeks[0][6].Day != 1 {
		t.Errorf("weeks = %+v", r.Weeks)
	}
}

func TestCalendar_YAML(t *testing.T) {
	ta := newTestApp(t, map[string]string{"20240214": "b"})
	out, err := ta.run(t, "", "calendar", "-o", "yaml")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	var r monthReport
	if err := yaml.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decoding yaml: %v", err)
	}
	if r.Today != "2024-02-15" || len(r.Entries) != 1 || r.Entries[0] != "2024-02-14" {
		t.Errorf("report = %+v", r)
	}
}

func TestCalendar_InvalidFlags(t *testing.T) {
	ta := newTestApp(t, nil)
	if _, err := ta.run(t, "", "calendar", "--month", "13"); err == nil {
		t.Error("month 13 should fail")
	}
	if _, err := ta.run(t, "", "calendar", "--output", "xml"); err == nil {
		t.Error("unknown output format should fail")
	}
}

func TestYears(t *testing.T) {
	ta := newTestApp(t, map[string]string{"20220301": "x", "20220302": "y", "20240210": "z"})
	out, err := ta.run(t, "", "years")
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	for _, want := range []string{"2024  1 entry", "2022  2 entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "2024") > strings.Index(out, "2022") {
		t.Errorf("years should be newest first:\n%s", out)
	}
}

func TestWrite_SavesStdin(t *testing.T) {
	ta := newTestApp(t, nil)
	out, err := ta.run(t, "Went hiking\n", "write", "yesterday")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(out, "Saved 2024-02-14") {
		t.Errorf("output = %q", out)
	}
	if got := ta.backend.entry("20240214"); got != "Went hiking\n" {
		t.Errorf("server text = %q", got)
	}

	out, err = ta.run(t, "Went hiking\n", "write", "2024-02-14")
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if !strings.Contains(out, "unchanged") {
		t.Errorf("identical text should be skipped, output = %q", out)
	}
}

func TestWrite_FromFile(t *testing.T) {
	ta := newTestApp(t, nil)
	path := filepath.Join(t.TempDir(), "entry.txt")
	if err := os.WriteFile(path, []byte("from a file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ta.run(t, "", "write", "20240210", "--file", path); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := ta.backend.entry("20240210"); got != "from a file" {
		t.Errorf("server text = %q", got)
	}
}

func TestWrite_FailureKeepsTextInCache(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.backend.failPost = true

	out, err := ta.run(t, "lost words", "write", "today")
	if !errors.Is(err, ErrSaveFailed) {
		t.Fatalf("err = %v, want ErrSaveFailed", err)
	}
	if !strings.Contains(out, "2024-02-15 kept in local cache") {
		t.Errorf("output = %q", out)
	}

	out, err = ta.run(t, "", "cache", "show", "2024-02-15")
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	if out != "lost words\n" {
		t.Errorf("cache show = %q", out)
	}

	out, err = ta.run(t, "", "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "2024-02-15") || !strings.Contains(out, "lost words") {
		t.Errorf("cache list = %q", out)
	}
}

func TestCache_Empty(t *testing.T) {
	ta := newTestApp(t, nil)
	out, err := ta.run(t, "", "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "No cached entries.") {
		t.Errorf("output = %q", out)
	}
	if _, err := ta.run(t, "", "cache", "show", "today"); err == nil {
		t.Error("showing a missing entry should fail")
	}
}

func TestTheme(t *testing.T) {
	ta := newTestApp(t, nil)

	steps := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: []string{"theme"}, want: "light"},
		{args: []string{"theme", "toggle"}, want: "Theme set to dark"},
		{args: []string{"theme"}, want: "dark"},
		{args: []string{"theme", "LIGHT"}, want: "Theme set to light"},
		{args: []string{"theme", "mocha"}, wantErr: true},
	}
	for _, s := range steps {
		out, err := ta.run(t, "", s.args...)
		if s.wantErr {
			if err == nil {
				t.Errorf("%v: expected error", s.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: %v", s.args, err)
		}
		if !strings.Contains(out, s.want) {
			t.Errorf("%v: output = %q, want %q", s.args, out, s.want)
		}
	}
}

func TestLoginLogout(t *testing.T) {
	ta := newTestApp(t, nil)
	baseURL := ta.cfg.Server.BaseURL
	_ = credentials.DeletePassword(baseURL)

	if _, err := ta.run(t, "wrong\n", "login", "--password-stdin"); err == nil || !strings.Contains(err.Error(), "wrong password") {
		t.Fatalf("login with wrong password: %v", err)
	}
	if _, err := credentials.GetPassword(baseURL); !errors.Is(err, credentials.ErrNotFound) {
		t.Fatalf("wrong password must not be stored: %v", err)
	}

	out, err := ta.run(t, testPassword+"\n", "login", "--password-stdin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Signed in") {
		t.Errorf("output = %q", out)
	}
	if pw, err := credentials.GetPassword(baseURL); err != nil || pw != testPassword {
		t.Fatalf("stored password = %q, %v", pw, err)
	}

	out, err = ta.run(t, "", "logout")
	if err != nil || !strings.Contains(out, "Password removed.") {
		t.Fatalf("logout: %q, %v", out, err)
	}
	out, err = ta.run(t, "", "logout")
	if err != nil || !strings.Contains(out, "No password stored.") {
		t.Fatalf("second logout: %q, %v", out, err)
	}
}

func TestOpen_InvalidDate(t *testing.T) {
	ta := newTestApp(t, nil)
	if _, err := ta.run(t, "", "open", "next-week"); !errors.Is(err, dateutil.ErrInvalidDateFormat) {
		t.Errorf("err = %v, want ErrInvalidDateFormat", err)
	}
}

func TestConfigInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	var out bytes.Buffer
	if err := runConfigInteractive(path, strings.NewReader("n\n"), &out); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !strings.Contains(out.String(), "Created "+path) {
		t.Errorf("output = %q", out.String())
	}

	// Edit: new URL, keep timeout and delay, 5 retries, keep the rest, dark theme.
	input := strings.Join([]string{"y", "https://diary.example.com", "", "", "5", "", "", "dark", ""}, "\n") + "\n"
	out.Reset()
	if err := runConfigInteractive(path, strings.NewReader(input), &out); err != nil {
		t.Fatalf("edit: %v", err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.Server.BaseURL != "https://diary.example.com" || cfg.Editor.MaxRetries != 5 || cfg.UI.Theme != "dark" {
		t.Errorf("saved config = %+v", cfg)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{"  padded  ", "padded"},
		{"first line\nsecond", "first line …"},
		{strings.Repeat("a", 60), strings.Repeat("a", 9) + "…"},
	}
	for _, tt := range tests {
		if got := preview(tt.in, 10); got != tt.want {
			t.Errorf("preview(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCellWidthFor(t *testing.T) {
	for _, tt := range []struct{ termW, want int }{{10, 4}, {35, 5}, {200, 6}} {
		if got := cellWidthFor(tt.termW); got != tt.want {
			t.Errorf("cellWidthFor(%d) = %d, want %d", tt.termW, got, tt.want)
		}
	}
}
