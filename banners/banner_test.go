package banners

import (
	"testing"

	"github.com/prebid/prebid-banners/errortypes"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Href:         "",
		Views:        Views{Remains: -1, Max: -1},
		DefaultCount: -1,
	}
	err := cfg.Validate()
	if assert.Error(t, err) {
		agg, ok := err.(errortypes.AggregateErrors)
		if assert.True(t, ok) {
			assert.Len(t, agg.Errors, 4)
			for _, e := range agg.Errors {
				assert.Equal(t, errortypes.BadInputErrorCode, errortypes.ReadCode(e))
			}
		}
	}

	cfg = DefaultConfig()
	cfg.Href = "https://example.com/landing?campaign=7"
	assert.NoError(t, cfg.Validate())
}

func TestNormalize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Views.Remains = -5
	warning := cfg.Normalize()
	assert.Equal(t, 0, cfg.Views.Remains)
	assert.True(t, errortypes.IsWarning(warning))
	assert.Equal(t, errortypes.ClampedRemainsWarningCode, errortypes.ReadCode(warning))
	assert.EqualError(t, warning, "views.remains was -5, clamped to 0")

	assert.NoError(t, cfg.Normalize())
}

func TestValidName(t *testing.T) {
	valid := []string{"superbanner", "super_banner-2", "A1"}
	invalid := []string{"", "..", "../etc", "a/b", `a\b`, "a.b", "with space"}

	for _, name := range valid {
		assert.True(t, ValidName(name), name)
	}
	for _, name := range invalid {
		assert.False(t, ValidName(name), name)
	}
}
