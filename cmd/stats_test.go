// ABOUTME: Tests for the stats and check commands
// ABOUTME: Verifies overview formatting, threshold logic and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
)

func TestRunStats_Human(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	backend.links = sampleBackendLinks()
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	code := runStats(context.Background(), &buf, rt)

	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	for _, want := range []string{"Total links:   10", "Indexed:       9", "90.0% [ok]", "https://example.com/b"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected output to contain %q, got %s", want, buf.String())
		}
	}
}

func TestRunStats_ServerError(t *testing.T) {
	setJSON(t, false)
	backend := newFakeBackend()
	backend.failWith["/api/dashboard/stats"] = http.StatusInternalServerError
	rt := newTestRuntime(t, backend, true)
	var buf bytes.Buffer

	if code := runStats(context.Background(), &buf, rt); code != exitFailed {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestFormatStatsHuman_NoRecent(t *testing.T) {
	out := formatStatsHuman(&overview.Overview{Stats: client.Stats{TotalLinks: 4, SuccessRate: 25}})
	if !strings.Contains(out, "[critical]") {
		t.Errorf("expected critical rate, got %s", out)
	}
	if strings.Contains(out, "Recent") {
		t.Error("expected no recent section")
	}
}

func TestRateStatus(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{95, "ok"},
		{80, "ok"},
		{60, "warning"},
		{10, "critical"},
	}
	for _, tt := range tests {
		if got := rateStatus(tt.rate, 80, 50); got != tt.want {
			t.Errorf("rateStatus(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

func TestPerformChecks(t *testing.T) {
	tests := []struct {
		name       string
		stats      client.Stats
		minRate    int
		maxPending int
		wantFailed int
		wantChecks int
	}{
		{"healthy", client.Stats{TotalLinks: 10, PendingLinks: 1, SuccessRate: 90}, 80, 5, 0, 2},
		{"low rate", client.Stats{TotalLinks: 10, SuccessRate: 40}, 80, -1, 1, 1},
		{"too many pending", client.Stats{TotalLinks: 10, PendingLinks: 9, SuccessRate: 90}, 80, 5, 1, 2},
		{"empty account", client.Stats{}, 80, -1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := performChecks(tt.stats, tt.minRate, tt.maxPending)
			if len(results) != tt.wantChecks {
				t.Errorf("expected %d checks, got %d", tt.wantChecks, len(results))
			}
			if _, failed := countResults(results); failed != tt.wantFailed {
				t.Errorf("expected %d failed, got %d", tt.wantFailed, failed)
			}
		})
	}
}

func TestValidateThresholds(t *testing.T) {
	if err := validateThresholds(80, -1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validateThresholds(101, -1); err == nil {
		t.Error("expected error for rate above 100")
	}
	if err := validateThresholds(80, -2); err == nil {
		t.Error("expected error for negative pending")
	}
}

func TestFormatCheckHuman(t *testing.T) {
	results := []checkResult{
		{name: "Success rate", value: 72.0, threshold: 80.0, unit: "%", passed: false},
		{name: "Pending links", value: 3, threshold: 5, passed: true},
	}

	output := formatCheckHuman(results)

	if !strings.Contains(output, "✗ Success rate: 72%") {
		t.Errorf("expected failed rate line, got %s", output)
	}
	if !strings.Contains(output, "FAILED: 1 check(s)") {
		t.Errorf("expected failure summary, got %s", output)
	}
}

func TestRunCheck_ExitCodes(t *testing.T) {
	setJSON(t, true)

	tests := []struct {
		name     string
		rate     string
		minRate  int
		wantCode int
		status   string
	}{
		{"passes", "90.0", 80, exitOK, "passed"},
		{"breached", "50.0", 80, exitFailed, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.stats["successRate"] = tt.rate
			rt := newTestRuntime(t, backend, true)
			var buf bytes.Buffer

			code := runCheck(context.Background(), &buf, rt, tt.minRate, -1)

			if code != tt.wantCode {
				t.Errorf("expected exit %d, got %d", tt.wantCode, code)
			}
			var parsed map[string]any
			if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if parsed["status"] != tt.status {
				t.Errorf("expected status %s, got %v", tt.status, parsed["status"])
			}
		})
	}
}

func TestRunCheck_InvalidThreshold(t *testing.T) {
	rt := newTestRuntime(t, newFakeBackend(), true)
	var buf bytes.Buffer

	if code := runCheck(context.Background(), &buf, rt, 150, -1); code != exitBackend {
		t.Errorf("expected exit 2, got %d", code)
	}
}
