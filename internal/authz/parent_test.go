package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeParentMissingSelector(t *testing.T) {
	_, err := AuthorizeParent(context.Background(), nil, 1, Business, nil)

	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "business_id", missing.Param)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAuthorizeParentZeroSelectorCountsAsMissing(t *testing.T) {
	zero := uint64(0)
	_, err := AuthorizeParent(context.Background(), nil, 1, Product, &zero)

	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "product_id", missing.Param)
}

func TestResolveOwnerRejectsDerived(t *testing.T) {
	_, err := ResolveOwner(context.Background(), nil, Category, 1)
	assert.ErrorIs(t, err, ErrNoOwner)
}
