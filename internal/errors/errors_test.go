package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreconditionCarriesContext(t *testing.T) {
	err := Precondition("horizon_years", 11, "in [1,10]")

	assert.Equal(t, TypePrecondition, err.Type)
	assert.Equal(t, "horizon_years must be in [1,10]", err.Message)
	assert.Equal(t, map[string]interface{}{
		KeyField: "horizon_years",
		KeyValue: "11",
		KeyBound: "in [1,10]",
	}, Details(err))
}

func TestTypeOfWrapped(t *testing.T) {
	inner := NotFound("state", "Atlantis")
	wrapped := fmt.Errorf("lookup: %w", inner)

	assert.True(t, IsType(wrapped, TypeNotFound))
	assert.Equal(t, TypeNotFound, TypeOf(wrapped))
	assert.Equal(t, TypeInternal, TypeOf(stderrors.New("plain")))
	assert.Nil(t, Details(stderrors.New("plain")))
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("bad tier")
	err := Wrap(TypeConfig, "invalid catalog", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[CONFIG_ERROR] invalid catalog: bad tier", err.Error())
}
