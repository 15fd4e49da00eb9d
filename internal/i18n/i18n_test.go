package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestT(t *testing.T) {
	assert.Equal(t, "Visit already exists for this client on that date", T("flash_visit_exist", "en"))
	assert.NotEqual(t, T("flash_visit_exist", "en"), T("flash_visit_exist", "lt"))

	t.Run("missing key falls back to key", func(t *testing.T) {
		assert.Equal(t, "no_such_key", T("no_such_key", "en"))
	})
	t.Run("missing language falls back to key", func(t *testing.T) {
		assert.Equal(t, "flash_visit_exist", T("flash_visit_exist", "de"))
	})
}

func TestCatalogCoversBothLanguages(t *testing.T) {
	c, err := Load(raw)
	require.NoError(t, err)
	for key, byLang := range c {
		assert.NotEmpty(t, byLang["en"], "en missing for %s", key)
		assert.NotEmpty(t, byLang["lt"], "lt missing for %s", key)
	}
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9", "en"},
		{"lt-LT", "lt"},
		{"de-DE", "lt"},
		{"", "lt"},
		{"fr;q=0.9, en;q=0.5", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			assert.Equal(t, tc.want, Negotiate(tc.header, "lt"))
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("en"))
	assert.False(t, IsSupported("EN"))
}
