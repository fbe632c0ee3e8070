package app

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const maintainerRealm = "dgcreview"

// Maintainer guards the listing and delete routes with HTTP basic auth. A
// zero Maintainer lets everyone through.
type Maintainer struct {
	User         string
	PasswordHash string
}

func (m Maintainer) Enabled() bool {
	return m.User != "" && m.PasswordHash != ""
}

func (m Maintainer) Allows(r *http.Request) bool {
	if !m.Enabled() {
		return true
	}
	user, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(m.User)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) == nil
}

// HashPassword produces a value suitable for MAINTAINER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *HTTPServer) requireMaintainer(w http.ResponseWriter, r *http.Request) bool {
	if s.maintainer.Allows(r) {
		return true
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="`+maintainerRealm+`", charset="UTF-8"`)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	return false
}
