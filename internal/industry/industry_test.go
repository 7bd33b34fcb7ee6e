package industry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curelog/curelog/internal/industry"
)

func TestParse_Valid(t *testing.T) {
	for _, i := range industry.All() {
		got, err := industry.Parse(string(i))
		require.NoError(t, err, "industry %q", i)
		assert.Equal(t, i, got)
		assert.True(t, got.Valid())
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, tag := range []string{"", "POWDER", "pharma", "cold_chain"} {
		_, err := industry.Parse(tag)
		assert.Error(t, err, "tag %q should be rejected", tag)
	}
}
