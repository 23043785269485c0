// ABOUTME: Tests for link commands
// ABOUTME: Verifies listing, submission sources, retry, delete and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
)

func sampleBackendLinks() []map[string]any {
	return []map[string]any{
		{"_id": "l1", "url": "https://example.com/a", "status": "indexed", "priority": "normal"},
		{"_id": "l2", "url": "https://example.com/b", "status": "failed", "priority": "high"},
	}
}

func TestRunLinksList_Human(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	backend.links = sampleBackendLinks()
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	code := runLinksList(context.Background(), &buf, rt, links.Query{Page: 1})

	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	for _, want := range []string{"https://example.com/a", "failed", "Page 1 of 1 (2 links)"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected output to contain %q, got %s", want, buf.String())
		}
	}
}

func TestRunLinksList_JSON(t *testing.T) {
	setJSON(t, true)
	backend := newFakeBackend()
	backend.links = sampleBackendLinks()
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	runLinksList(context.Background(), &buf, rt, links.Query{Page: 1})

	var parsed struct {
		Links      []client.Link `json:"links"`
		TotalPages int           `json:"totalPages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed.Links) != 2 || parsed.TotalPages != 1 {
		t.Errorf("unexpected output %+v", parsed)
	}
}

func TestFormatLinksHuman_Empty(t *testing.T) {
	if got := formatLinksHuman(links.View{TotalPages: 1}); got != "No links found." {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRunLinksSubmit(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	code := runLinksSubmit(context.Background(), &buf, rt, "https://a.example\n\n https://b.example ", client.PriorityHigh)

	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Submitted 2 link(s)") {
		t.Errorf("unexpected output %s", buf.String())
	}
	if !strings.Contains(buf.String(), "Credits remaining: 48") {
		t.Errorf("expected server-reported credits, got %s", buf.String())
	}
	if len(backend.submits) != 1 || len(backend.submits[0]) != 2 {
		t.Errorf("unexpected submissions %v", backend.submits)
	}
}

func TestRunLinksSubmit_Empty(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	rt := newTestRuntime(t, backend, false)
	var buf bytes.Buffer

	code := runLinksSubmit(context.Background(), &buf, rt, "  \n ", client.PriorityNormal)

	if code != exitFailed {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(buf.String(), links.MsgEmptySubmission) {
		t.Errorf("unexpected output %s", buf.String())
	}
}

func TestSubmissionText(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "urls.txt")
	os.WriteFile(file, []byte("https://c.example\nhttps://d.example\n"), 0644)

	text, err := submissionText([]string{"https://a.example"}, file, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := links.ParseURLs(text); len(got) != 3 {
		t.Errorf("expected 3 urls, got %q", got)
	}

	text, err = submissionText(nil, "-", strings.NewReader("https://e.example\n"))
	if err != nil || len(links.ParseURLs(text)) != 1 {
		t.Errorf("expected stdin url, got %q (%v)", text, err)
	}

	if _, err := submissionText(nil, filepath.Join(dir, "missing.txt"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunLinksRetryAndDelete(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	backend.links = sampleBackendLinks()
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	if code := runLinksRetry(context.Background(), &buf, rt, "l2"); code != exitOK {
		t.Errorf("expected retry exit 0, got %d: %s", code, buf.String())
	}
	if code := runLinksDelete(context.Background(), &buf, rt, "l1"); code != exitOK {
		t.Errorf("expected delete exit 0, got %d: %s", code, buf.String())
	}
	if len(backend.retried) != 1 || backend.retried[0] != "l2" {
		t.Errorf("unexpected retries %v", backend.retried)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "l1" {
		t.Errorf("unexpected deletes %v", backend.deleted)
	}
}

func TestRunLinksDelete_ServerError(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	backend.failWith["/api/links/l1"] = http.StatusNotFound
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	code := runLinksDelete(context.Background(), &buf, rt, "l1")

	if code != exitFailed {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "forced failure") {
		t.Errorf("expected server message, got %s", buf.String())
	}
}

func TestRunLinksList_ExpiredCredential(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	backend.failWith["/api/links"] = http.StatusUnauthorized
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	code := runLinksList(context.Background(), &buf, rt, links.Query{Page: 1})

	if code != exitBackend {
		t.Errorf("expected exit 2, got %d", code)
	}
	if rt.session.Snapshot().SignedIn() {
		t.Error("expected silent logout after 401")
	}
}
