package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	domain := []error{
		&ValidationError{Field: "quantity", Reason: "must be positive"},
		&NotFoundError{Entity: "order", Key: "SO00001"},
		&InvalidStateError{Entity: "order", Operation: "add line", Status: "Open"},
		&BelowMinimumQuantityError{Minimum: decimal.NewFromInt(50)},
		&InsufficientQuantityError{},
		&CapacityExceededError{},
		&BinConflictError{Field: "batch_number"},
		fmt.Errorf("add line: %w", &ValidationError{Field: "mrp", Reason: "required"}),
	}
	for _, err := range domain {
		assert.Equal(t, ClassClientValidation, Classify(err), err.Error())
	}
	assert.Equal(t, ClassUnexpected, Classify(errors.New("connection reset")))
	assert.Equal(t, ClassUnexpected, Classify(&UnexpectedError{Op: "x", Err: errors.New("boom")}))
}

func TestWrapUnexpected(t *testing.T) {
	assert.NoError(t, WrapUnexpected("op", nil))

	nf := &NotFoundError{Entity: "bin", Key: "A-01"}
	assert.Same(t, nf, WrapUnexpected("op", nf))

	raw := errors.New("disk full")
	wrapped := WrapUnexpected("save line", raw)
	var ue *UnexpectedError
	require.ErrorAs(t, wrapped, &ue)
	assert.Equal(t, "save line", ue.Op)
	assert.ErrorIs(t, wrapped, raw)

	// already wrapped errors are not wrapped twice
	assert.Same(t, wrapped, WrapUnexpected("outer", wrapped))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "bin_conflict", ErrorKind(&BinConflictError{}))
	assert.Equal(t, "not_found", ErrorKind(&NotFoundError{}))
	assert.Equal(t, "unexpected", ErrorKind(errors.New("x")))
	assert.Equal(t, "", ErrorKind(nil))
}

func TestBelowMinimumShortfall(t *testing.T) {
	err := &BelowMinimumQuantityError{
		Item:      "Widget",
		Requested: decimal.NewFromInt(20),
		Existing:  decimal.NewFromInt(10),
		Minimum:   decimal.NewFromInt(50),
	}
	assert.True(t, err.Shortfall().Equal(decimal.NewFromInt(20)))
	assert.Contains(t, err.Error(), "short by 20")
}

func TestParseLookupKey(t *testing.T) {
	k, err := ParseLookupKey("1234567890")
	require.NoError(t, err)
	assert.True(t, k.IsID())
	assert.Equal(t, SnowflakeID(1234567890), k.ID)

	k, err = ParseLookupKey(" so00012 ")
	require.NoError(t, err)
	assert.False(t, k.IsID())
	assert.Equal(t, "SO00012", k.Code)

	_, err = ParseLookupKey("  ")
	assert.Error(t, err)
	_, err = ParseLookupKey("0")
	assert.Error(t, err)
}

func TestNewItemRef(t *testing.T) {
	ref, err := NewItemRef("42", "")
	require.NoError(t, err)
	assert.Equal(t, ProductRef(42), ref)

	ref, err = NewItemRef("", "7")
	require.NoError(t, err)
	assert.Equal(t, MaterialRef(7), ref)

	var ve *ValidationError
	_, err = NewItemRef("42", "7")
	assert.ErrorAs(t, err, &ve)
	_, err = NewItemRef("", "")
	assert.ErrorAs(t, err, &ve)
	_, err = NewItemRef("abc", "")
	assert.ErrorAs(t, err, &ve)
}
