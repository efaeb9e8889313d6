package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLinkedIn(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain profile", "https://linkedin.com/in/jane-smith", "linkedin.com/in/jane-smith", true},
		{"www and trailing slash", "https://www.linkedin.com/in/jane-smith/", "linkedin.com/in/jane-smith", true},
		{"http scheme", "http://linkedin.com/in/jsmith", "linkedin.com/in/jsmith", true},
		{"no scheme", "linkedin.com/in/jsmith", "linkedin.com/in/jsmith", true},
		{"locale subdomain", "https://uk.linkedin.com/in/jane-smith", "linkedin.com/in/jane-smith", true},
		{"query stripped", "https://linkedin.com/in/jane-smith?trk=feed", "linkedin.com/in/jane-smith", true},
		{"fragment stripped", "https://linkedin.com/in/jane-smith#about", "linkedin.com/in/jane-smith", true},
		{"company page", "https://www.linkedin.com/company/acme-plumbing", "linkedin.com/company/acme-plumbing", true},
		{"mixed case host", "https://WWW.LinkedIn.com/in/jane-smith", "linkedin.com/in/jane-smith", true},
		{"wrong host", "https://twitter.com/in/jane-smith", "", false},
		{"no path", "https://linkedin.com", "", false},
		{"deep path", "https://linkedin.com/in/jane-smith/details/experience", "", false},
		{"feed url", "https://linkedin.com/feed/update/abc", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeLinkedIn(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeLinkedInIdempotent(t *testing.T) {
	first, ok := NormalizeLinkedIn("https://uk.linkedin.com/in/jane-smith/?trk=x")
	require.True(t, ok)

	second, ok := NormalizeLinkedIn(first)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestIsPersonProfile(t *testing.T) {
	assert.True(t, IsPersonProfile("linkedin.com/in/jane-smith"))
	assert.False(t, IsPersonProfile("linkedin.com/company/acme-plumbing"))
	assert.False(t, IsPersonProfile(""))
}
