package artifacts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedListing(t *testing.T) {
	fetches := 0
	fetch := func() ([]RawArtifact, error) {
		fetches++
		return []RawArtifact{{ID: "a", TypeCode: TypeCodeReport}}, nil
	}

	ctx := WithListingMemo(context.Background())
	for range 3 {
		raw, err := SharedListing(ctx, "nb", fetch)
		require.NoError(t, err)
		require.Len(t, raw, 1)
	}
	assert.Equal(t, 1, fetches)

	_, err := SharedListing(ctx, "other", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "memo is per notebook")

	_, err = SharedListing(WithListingMemo(ctx), "nb", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "nested scopes share the outer memo")

	_, err = SharedListing(context.Background(), "nb", fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, fetches, "no memo without a scope")
}

func TestSharedListingDoesNotKeepErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	fetch := func() ([]RawArtifact, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return []RawArtifact{{ID: "a"}}, nil
	}
	ctx := WithListingMemo(context.Background())

	_, err := SharedListing(ctx, "nb", fetch)
	assert.ErrorIs(t, err, boom)
	raw, err := SharedListing(ctx, "nb", fetch)
	require.NoError(t, err)
	assert.Len(t, raw, 1)
}
