package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/redhatinsights/platform-go-middlewares/v2/identity"
	log "github.com/sirupsen/logrus"
)

// HeaderName is the platform identity header.
const HeaderName = "x-rh-identity"

var ErrInvalidIdentity = errors.New("invalid identity header")

// DecodeHeader parses a base64 encoded x-rh-identity value.
func DecodeHeader(header string) (identity.XRHID, error) {
	var xrhid identity.XRHID

	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return xrhid, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if err := json.Unmarshal(raw, &xrhid); err != nil {
		return xrhid, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if xrhid.Identity.OrgID == "" {
		return xrhid, fmt.Errorf("%w: missing org_id", ErrInvalidIdentity)
	}
	return xrhid, nil
}

// GenerateIdentityHeader builds a user identity header for orgID and userID.
func GenerateIdentityHeader(orgID, userID string) (string, error) {
	if orgID == "" {
		return "", fmt.Errorf("orgID cannot be empty")
	}
	if userID == "" {
		return "", fmt.Errorf("userID cannot be empty")
	}

	xrhid := identity.XRHID{
		Identity: identity.Identity{
			OrgID:    orgID,
			Type:     "User",
			AuthType: "jwt-auth",
			User: &identity.User{
				Username: userID,
				UserID:   userID,
			},
		},
	}

	data, err := json.Marshal(xrhid)
	if err != nil {
		return "", fmt.Errorf("failed to marshal identity: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// OwnerID returns the user id carried by an identity, or "" when the
// identity has none.
func OwnerID(xrhid identity.XRHID) string {
	if xrhid.Identity.User == nil {
		return ""
	}
	return xrhid.Identity.User.UserID
}

// ExtractIdentity stores a present x-rh-identity header in the request
// context. Requests without the header pass through untouched; a malformed
// header is rejected with 400.
func ExtractIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(HeaderName)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		xrhid, err := DecodeHeader(header)
		if err != nil {
			log.Debugf("ExtractIdentity - rejecting request: %v", err)
			http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), xrhid)))
	})
}

// OwnerFromRequest returns the user id of the identity stored by
// ExtractIdentity, or "" when the request carried none. It must only be
// called behind ExtractIdentity.
func OwnerFromRequest(r *http.Request) string {
	if r.Header.Get(HeaderName) == "" {
		return ""
	}
	return OwnerID(identity.Get(r.Context()))
}
