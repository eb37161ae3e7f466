package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortivest/quotations/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func TestValidateStringNotEmpty(t *testing.T) {
	assert.NoError(t, ValidateStringNotEmpty("J. Moran", "client name"))
	assert.ErrorIs(t, ValidateStringNotEmpty("", "client name"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateStringNotEmpty("   \t ", "client name"), ErrValidationFailed)
}

func TestValidateStringMaxLength(t *testing.T) {
	assert.NoError(t, ValidateStringMaxLength(strings.Repeat("a", 255), DefaultMaxStringLength, "field"))
	assert.ErrorIs(t, ValidateStringMaxLength(strings.Repeat("a", 256), DefaultMaxStringLength, "field"), ErrValidationFailed)
	// Counted in runes, not bytes.
	assert.NoError(t, ValidateStringMaxLength(strings.Repeat("é", 255), DefaultMaxStringLength, "field"))
}

func TestValidateDateString(t *testing.T) {
	d, err := ValidateDateString("2026-10-01", "commencement date")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01", d.Format("2006-01-02"))

	_, err = ValidateDateString("", "commencement date")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateDateString("01/10/2026", "commencement date")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateDateString("2026-02-30", "commencement date")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("j.moran@example.com"))
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateEmail("a@b"), ErrValidationFailed)
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("+353 1 555 0140"))
	assert.NoError(t, ValidatePhone("(091) 555-123"))
	assert.ErrorIs(t, ValidatePhone("call me maybe"), ErrValidationFailed)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "J. Moran", SanitizeText("<script>alert(1)</script>J. Moran"))
	assert.Equal(t, "bold", SanitizeText("<b>bold</b>"))
	assert.Equal(t, "plain text", SanitizeText("plain text"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "clean", StripUnprintable("cl\x00ea\x07n"))
	assert.Equal(t, "tabs\tand\nnewlines kept", StripUnprintable("tabs\tand\nnewlines kept"))
}
