package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateKnownLocales(t *testing.T) {
	require.NoError(t, Initialize(LangEnglish))

	assert.Equal(t, "Not available", T("en", KeyPriceNotAvailable))
	assert.Equal(t, "غير متوفر", T("ar", KeyPriceNotAvailable))
	assert.Equal(t, "Invalid input", T("en", KeyValidationInvalid, "input"))
}

func TestTranslateFallsBack(t *testing.T) {
	require.NoError(t, Initialize(LangEnglish))

	assert.Equal(t, "Operation failed. Please try again.", T("fr-FR", KeyCartOperationFailed))
	assert.Equal(t, "no.such.key", T("ar", "no.such.key"))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                        LangEnglish,
		"en":                      LangEnglish,
		"ar":                      LangArabic,
		"ar-JO":                   LangArabic,
		"ar-JO,ar;q=0.9,en;q=0.8": LangArabic,
		"en-GB,en;q=0.9":          LangEnglish,
		"not a tag !!":            LangEnglish,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, DirRTL, Direction("ar"))
	assert.Equal(t, DirLTR, Direction("en-US"))
	assert.True(t, IsArabic("ar-SA"))
}
