package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_stateCounterIncrements(t *testing.T) {
	st := NewState()

	assert.Equal(t, uint64(0), st.Counter())
	assert.Equal(t, uint64(1), st.Next())
	assert.Equal(t, uint64(2), st.Next())
	assert.Equal(t, uint64(2), st.Counter())
}

func Test_stateRandomAlphanumericLength(t *testing.T) {
	st := NewState()

	s := st.RandomAlphanumeric()
	assert.Len(t, s, 30)

	for _, r := range s {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}
}

func Test_stateRandomUint32Varies(t *testing.T) {
	st := NewState()

	a := st.RandomUint32()
	seen := false
	for i := 0; i < 10; i++ {
		if st.RandomUint32() != a {
			seen = true
			break
		}
	}
	assert.True(t, seen)
}
