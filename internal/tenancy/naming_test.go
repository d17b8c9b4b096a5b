package tenancy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "Acme Corp", expected: "acme-corp"},
		{name: "already clean", input: "acme", expected: "acme"},
		{name: "punctuation collapses", input: "Acme, Corp. (Holdings)", expected: "acme-corp-holdings"},
		{name: "leading and trailing junk trimmed", input: "  --Acme--  ", expected: "acme"},
		{name: "digits kept", input: "Shop 24x7", expected: "shop-24x7"},
		{name: "unicode dropped", input: "Büro Müller", expected: "b-ro-m-ller"},
		{name: "empty", input: "!!!", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestNewTenantDBName(t *testing.T) {
	name, err := NewTenantDBName("Acme Corp")
	require.NoError(t, err)

	// slug-disambiguator, all lowercase
	require.True(t, strings.HasPrefix(name, "acme-corp-"), "got %q", name)
	require.Equal(t, strings.ToLower(name), name)

	token := strings.TrimPrefix(name, "acme-corp-")
	require.NotEmpty(t, token)
	require.NotContains(t, token, "-")
}

func TestNewTenantDBNameDistinctForRepeatedNames(t *testing.T) {
	first, err := NewTenantDBName("Acme Corp")
	require.NoError(t, err)

	second, err := NewTenantDBName("Acme Corp")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestNewTenantDBNameBoundedLength(t *testing.T) {
	name, err := NewTenantDBName(strings.Repeat("Very Long Organization Name ", 5))
	require.NoError(t, err)
	require.LessOrEqual(t, len(name), maxTenantDBNameLen)
}

func TestNewTenantDBNameEmptySlug(t *testing.T) {
	_, err := NewTenantDBName("***")
	require.Error(t, err)
}

func TestNewTempCredential(t *testing.T) {
	first, err := NewTempCredential()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := NewTempCredential()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
