package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReceiptNumber(t *testing.T) {
	issued := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		template string
		seq      int64
		want     string
	}{
		{DefaultReceiptNumberTemplate, 42, "INV-20250307-000042"},
		{"F{YY}{MM}-{SEQ}", 7, "F2503-7"},
		{"{DD}/{MM}/{YYYY}#{SEQ3}", 1234, "07/03/2025#1234"},
	}
	for _, tc := range tests {
		got, err := FormatReceiptNumber(tc.template, issued, tc.seq)
		require.NoError(t, err, tc.template)
		assert.Equal(t, tc.want, got)
	}
}

func TestFormatReceiptNumber_Errors(t *testing.T) {
	issued := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	_, err := FormatReceiptNumber("", issued, 1)
	assert.Error(t, err)
	_, err = FormatReceiptNumber("INV-{SEQ6}", issued, 0)
	assert.Error(t, err)
	_, err = FormatReceiptNumber("INV-{HH}-{SEQ}", issued, 1)
	assert.Error(t, err)

	assert.NoError(t, ValidateTemplate(DefaultReceiptNumberTemplate))
	assert.Error(t, ValidateTemplate("INV-{SEQ0}"))
}
