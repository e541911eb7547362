package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityIdTentativeVsPermanent(t *testing.T) {
	assert.True(t, EntityId(-1).IsTentative())
	assert.False(t, EntityId(-1).IsPermanent())
	assert.True(t, EntityId(1).IsPermanent())
	assert.False(t, EntityId(0).IsTentative())
	assert.False(t, EntityId(0).IsPermanent())
}

func TestValidityBeforeIsInclusive(t *testing.T) {
	assert.True(t, Validity(5).Before(5))
	assert.True(t, Validity(4).Before(5))
	assert.False(t, Validity(6).Before(5))
	assert.True(t, ValidityMin.Before(ValidityMax))
}
