package tenancy

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// disambiguatorBytes gives ~8 base58 characters, enough to keep repeated
// organization names from colliding on database names.
const disambiguatorBytes = 6

// maxTenantDBNameLen keeps derived names inside PostgreSQL's 63-byte
// identifier limit with room to spare.
const maxTenantDBNameLen = 48

// Slugify lowercases name and reduces it to URL-safe characters, collapsing
// runs of anything else into single hyphens. "Acme Corp" becomes "acme-corp".
func Slugify(name string) string {
	var b strings.Builder
	prevHyphen := true // trim leading hyphens

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// NewTenantDBName derives a physical database name for an organization as
// "slug-disambiguator". The random token keeps two organizations with the
// same name apart; the slug keeps the name recognizable to operators. The
// convention is part of the on-disk contract other tooling depends on.
func NewTenantDBName(orgName string) (string, error) {
	slug := Slugify(orgName)
	if slug == "" {
		return "", fmt.Errorf("organization name %q yields an empty slug", orgName)
	}

	token, err := randomToken(disambiguatorBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate disambiguator: %w", err)
	}
	// Database names stay lowercase so operators never fight identifier
	// case folding.
	token = strings.ToLower(token)

	if max := maxTenantDBNameLen - len(token) - 1; len(slug) > max {
		slug = strings.TrimRight(slug[:max], "-")
	}

	return slug + "-" + token, nil
}

// NewTempCredential generates the temporary credential string sent to a new
// organization's admin with their welcome notification.
func NewTempCredential() (string, error) {
	token, err := randomToken(18)
	if err != nil {
		return "", fmt.Errorf("failed to generate credential: %w", err)
	}
	return token, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base58.Encode(buf), nil
}
