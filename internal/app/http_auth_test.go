package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dgcreview/api/internal/logging"

	"golang.org/x/crypto/bcrypt"
)

func newMaintainer(t *testing.T) Maintainer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("cheers"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return Maintainer{User: "keeper", PasswordHash: string(hash)}
}

func TestMaintainerDisabledAllowsEveryone(t *testing.T) {
	if !(Maintainer{}).Allows(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Fatal("expected open access without configured maintainer")
	}
	if (Maintainer{User: "keeper"}).Enabled() {
		t.Fatal("expected auth disabled without a password hash")
	}
}

func TestMaintainerRoutesRequireCredentials(t *testing.T) {
	fr := &fakeReviews{}
	server := NewHTTPServer(fr, logging.Discard(), Options{Maintainer: newMaintainer(t)})

	paths := []string{"/", "/api/reviews", "/delete/abc"}
	for _, path := range paths {
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", path, rr.Code)
		}
		if rr.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("%s: expected WWW-Authenticate challenge", path)
		}
	}
	if len(fr.deleted) != 0 {
		t.Fatalf("expected no deletes without credentials, got %v", fr.deleted)
	}
}

func TestMaintainerRejectsWrongPassword(t *testing.T) {
	server := NewHTTPServer(&fakeReviews{}, logging.Discard(), Options{Maintainer: newMaintainer(t)})

	cases := []struct{ user, password string }{
		{"keeper", "water"},
		{"guest", "cheers"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
		req.SetBasicAuth(tc.user, tc.password)
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s/%s: expected status 401, got %d", tc.user, tc.password, rr.Code)
		}
	}
}

func TestMaintainerAcceptsValidCredentials(t *testing.T) {
	fr := &fakeReviews{}
	server := NewHTTPServer(fr, logging.Discard(), Options{Maintainer: newMaintainer(t)})

	req := httptest.NewRequest(http.MethodGet, "/delete/abc", nil)
	req.SetBasicAuth("keeper", "cheers")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(fr.deleted) != 1 || fr.deleted[0] != "abc" {
		t.Fatalf("expected delete of abc, got %v", fr.deleted)
	}
}

func TestSubmissionNeedsNoCredentials(t *testing.T) {
	server := NewHTTPServer(&fakeReviews{}, logging.Discard(), Options{Maintainer: newMaintainer(t)})

	req := httptest.NewRequest(http.MethodPost, "/add", validReviewBody())
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("cheers")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	m := Maintainer{User: "keeper", PasswordHash: hash}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("keeper", "cheers")
	if !m.Allows(req) {
		t.Fatal("expected generated hash to verify")
	}
}
