package lifting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_IsValid(t *testing.T) {
	for _, c := range []Category{
		CategoryMobility,
		CategoryWarmUp,
		CategoryActivation,
		CategoryWorkingSets,
		CategoryCorrective,
		CategoryAerobic,
		CategoryCoolDown,
	} {
		assert.True(t, c.IsValid(), c.String())
	}

	assert.False(t, Category("").IsValid())
	assert.False(t, Category("Cardio").IsValid())
	assert.False(t, Category("workingsets").IsValid())
}
