package chainclient

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/types"
)

func TestExpectedErr(t *testing.T) {
	expectedErr := Expected(fmt.Errorf("some error"))
	require.True(t, IsExpected(expectedErr))
	wrappedErr := fmt.Errorf("expected: %w", expectedErr)
	require.True(t, IsExpected(wrappedErr))

	require.True(t, IsExpected(types.ErrBelowFee.Wrap("fulfillment under the fee floor")))
	require.False(t, IsExpected(fmt.Errorf("some error")))
}

func TestUnrecoverableErr(t *testing.T) {
	err := types.ErrCorruptedRecord.Wrap("two records for one key")
	require.True(t, IsUnrecoverable(fmt.Errorf("query failed: %w", err)))
	require.False(t, IsUnrecoverable(fmt.Errorf("connection refused")))
}
