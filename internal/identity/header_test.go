package identity

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateIdentityHeader(t *testing.T) {
	tests := []struct {
		name    string
		orgID   string
		userID  string
		wantErr bool
	}{
		{name: "Valid org and user", orgID: "org-1", userID: "user-1"},
		{name: "Empty orgID", orgID: "", userID: "user-1", wantErr: true},
		{name: "Empty userID", orgID: "org-1", userID: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, err := GenerateIdentityHeader(tt.orgID, tt.userID)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GenerateIdentityHeader() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateIdentityHeader() unexpected error: %v", err)
			}

			xrhid, err := DecodeHeader(header)
			if err != nil {
				t.Fatalf("DecodeHeader() unexpected error: %v", err)
			}
			if xrhid.Identity.OrgID != tt.orgID {
				t.Errorf("Expected org %s, got %s", tt.orgID, xrhid.Identity.OrgID)
			}
			if OwnerID(xrhid) != tt.userID {
				t.Errorf("Expected owner %s, got %s", tt.userID, OwnerID(xrhid))
			}
		})
	}
}

func TestDecodeHeaderRejectsGarbage(t *testing.T) {
	for _, header := range []string{
		"not base64!",
		base64.StdEncoding.EncodeToString([]byte("{not json")),
		base64.StdEncoding.EncodeToString([]byte(`{"identity":{"type":"User"}}`)),
	} {
		if _, err := DecodeHeader(header); !errors.Is(err, ErrInvalidIdentity) {
			t.Errorf("DecodeHeader(%q) = %v, want ErrInvalidIdentity", header, err)
		}
	}
}

func TestExtractIdentity(t *testing.T) {
	var owner string
	handler := ExtractIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = OwnerFromRequest(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	header, err := GenerateIdentityHeader("org-1", "user-7")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("header present", func(t *testing.T) {
		owner = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", rec.Code)
		}
		if owner != "user-7" {
			t.Errorf("Expected owner user-7, got %q", owner)
		}
	})

	t.Run("header absent", func(t *testing.T) {
		owner = "stale"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d", rec.Code)
		}
		if owner != "" {
			t.Errorf("Expected no owner, got %q", owner)
		}
	})

	t.Run("header malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, "%%%")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}
