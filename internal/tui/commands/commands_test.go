package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/calendar"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

type fakeClient struct {
	dates    []string
	entries  map[dateutil.Key]string
	entryErr error
	saveErr  error
	saved    []string
}

func (f *fakeClient) Years(context.Context) ([]int, error) { return []int{2023}, nil }

func (f *fakeClient) DiaryDates(context.Context) ([]string, error) { return f.dates, nil }

func (f *fakeClient) Entry(_ context.Context, key dateutil.Key) (string, error) {
	return f.entries[key], f.entryErr
}

func (f *fakeClient) SaveEntry(_ context.Context, _ dateutil.Key, content string) error {
	f.saved = append(f.saved, content)
	return f.saveErr
}

type memStore map[string]string

func (m memStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func (m memStore) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestFetchCalendar(t *testing.T) {
	now := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	client := &fakeClient{dates: []string{"20240210"}}
	ctrl := calendar.NewController(client, nil, func() time.Time { return now })

	msg := FetchCalendar(ctrl, time.Second)()
	loaded, ok := msg.(CalendarLoadedMsg)
	if !ok {
		t.Fatalf("got %T", msg)
	}
	if loaded.View.EntryCount != 1 || loaded.View.Title != "February 2024" {
		t.Errorf("view = %+v", loaded.View)
	}
}

func TestLoadEntry(t *testing.T) {
	client := &fakeClient{entries: map[dateutil.Key]string{"2024-02-10": "hello"}}

	msg := LoadEntry(client, "2024-02-10", time.Second)()
	loaded, ok := msg.(EntryLoadedMsg)
	if !ok {
		t.Fatalf("got %T", msg)
	}
	if loaded.Key != "2024-02-10" || loaded.Content != "hello" || loaded.Err != nil {
		t.Errorf("msg = %+v", loaded)
	}

	client.entryErr = errors.New("offline")
	loaded = LoadEntry(client, "2024-02-10", time.Second)().(EntryLoadedMsg)
	if loaded.Err == nil {
		t.Error("expected error to be carried")
	}
}

func TestWaitForSaveStatus(t *testing.T) {
	ch := make(chan autosave.Status, 1)
	ch <- autosave.Status{Kind: autosave.StatusSaved, Key: "2024-02-10"}

	msg := WaitForSaveStatus(context.Background(), ch)()
	got, ok := msg.(SaveStatusMsg)
	if !ok || got.Status.Kind != autosave.StatusSaved {
		t.Fatalf("got %#v", msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := WaitForSaveStatus(ctx, ch)(); msg != nil {
		t.Errorf("cancelled wait returned %#v", msg)
	}
}

func TestSaveNow(t *testing.T) {
	client := &fakeClient{}
	ctrl := autosave.New(autosave.DefaultConfig("2024-02-10"), client, nil, autosave.NewManualClock(time.Now()), nil)
	ctrl.OnInit(context.Background(), "same")

	msg := SaveNow(ctrl, time.Second)()
	if status, ok := msg.(StatusMsgCmd); !ok || status.Msg != "Nothing to save" {
		t.Errorf("clean buffer: got %#v", msg)
	}

	ctrl.OnTextChanged("changed")
	if msg := SaveNow(ctrl, time.Second)(); msg != nil {
		t.Errorf("dirty buffer: got %#v", msg)
	}
	if len(client.saved) != 1 || client.saved[0] != "changed" {
		t.Errorf("saved = %v", client.saved)
	}
}

func TestFlush_ReportsFailure(t *testing.T) {
	client := &fakeClient{saveErr: errors.New("offline")}
	ctrl := autosave.New(autosave.DefaultConfig("2024-02-10"), client, nil, autosave.NewManualClock(time.Now()), nil)
	ctrl.OnInit(context.Background(), "")
	ctrl.OnTextChanged("draft")

	msg := Flush(ctrl, time.Second)()
	status, ok := msg.(StatusMsgCmd)
	if !ok || status.Msg != "2024-02-10 kept in local cache" {
		t.Errorf("got %#v", msg)
	}
}

func TestToggleTheme(t *testing.T) {
	store := memStore{}
	pref := theme.NewPreference(store, "light")

	msg := ToggleTheme(pref)().(ThemeChangedMsg)
	if msg.Err != nil || msg.Mode != theme.Dark {
		t.Errorf("msg = %+v", msg)
	}
	if store[theme.PreferenceKey] != "dark" {
		t.Errorf("stored %q", store[theme.PreferenceKey])
	}
}
