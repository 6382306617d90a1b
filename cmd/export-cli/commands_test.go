package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"employee-export/internal/clients/export"
	"employee-export/internal/identity"
)

func runCLI(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", serverURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSubmitCommand(t *testing.T) {
	var got export.ExportRequest
	var owner string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xrhid, err := identity.DecodeHeader(r.Header.Get(identity.HeaderName)); err == nil {
			owner = identity.OwnerID(xrhid)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(export.SubmitResponse{ReferenceID: "EXP_abc123def456", Status: export.StatusPending})
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "--org", "org-1", "--user", "user-1",
		"submit", "--department", "Engineering", "--min-salary", "0", "--sort-dir", "desc")
	if err != nil {
		t.Fatalf("submit failed: %v\n%s", err, out)
	}

	if !strings.Contains(out, "Reference ID: EXP_abc123def456") {
		t.Errorf("Unexpected output %q", out)
	}
	if owner != "user-1" {
		t.Errorf("Expected identity for user-1, got %q", owner)
	}
	if got.Department != "Engineering" || got.SortDir != "desc" {
		t.Errorf("Unexpected request %+v", got)
	}
	if got.MinSalary == nil || *got.MinSalary != 0 {
		t.Errorf("Expected explicit minSalary 0, got %v", got.MinSalary)
	}
	if got.MaxSalary != nil {
		t.Errorf("Expected no maxSalary, got %v", *got.MaxSalary)
	}
}

func TestDownloadCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "EXP_pending") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(export.StatusResponse{ReferenceID: "EXP_pending", Status: export.StatusPending, Message: "Export is queued for processing"})
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="export_EXP_done.csv"`)
		w.Header().Set("X-Total-Records", "1")
		w.Write([]byte("ID\n\"1\"\n"))
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "out.csv")
	out, err := runCLI(t, server.URL, "download", "EXP_done", "-o", target)
	if err != nil {
		t.Fatalf("download failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ID\n\"1\"\n" {
		t.Errorf("Unexpected file contents %q", data)
	}

	_, err = runCLI(t, server.URL, "download", "EXP_pending")
	if err == nil || !strings.Contains(err.Error(), "Export is queued for processing") {
		t.Errorf("Expected not-ready error, got %v", err)
	}
}

func TestListAndCancelCommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path != "/exports/user/user-9" {
				t.Errorf("Unexpected path %s", r.URL.Path)
			}
			total := 4
			json.NewEncoder(w).Encode([]export.ExportSummary{{ReferenceID: "EXP_1", Status: export.StatusCompleted, OwnerID: "user-9", TotalRecords: &total}})
		case http.MethodDelete:
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(export.ErrorResponse{Errors: []export.ErrorObject{{Status: "409", Title: "Conflict", Detail: "Cannot cancel export in PROCESSING status"}}})
		}
	}))
	defer server.Close()

	out, err := runCLI(t, server.URL, "list", "--for-user", "user-9")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "EXP_1") || !strings.Contains(out, "COMPLETED") {
		t.Errorf("Unexpected list output %q", out)
	}

	_, err = runCLI(t, server.URL, "cancel", "EXP_1")
	if err == nil || !strings.Contains(err.Error(), "Cannot cancel export in PROCESSING status") {
		t.Errorf("Expected conflict error, got %v", err)
	}
}

func TestCommandsRequireReference(t *testing.T) {
	for _, name := range []string{"status", "download", "cancel"} {
		if _, err := runCLI(t, "http://127.0.0.1:0", name); err == nil {
			t.Errorf("%s without a reference id should fail", name)
		}
	}
}
