package chainclient

import (
	"errors"
	"strings"
	"time"

	sdkErr "cosmossdk.io/errors"
	"github.com/avast/retry-go/v4"

	"github.com/quorumnet/partyd/types"
)

// Variables used for retries against external chains.
var (
	RtyAttNum = uint(5)
	RtyAtt    = retry.Attempts(RtyAttNum)
	RtyDel    = retry.Delay(time.Millisecond * 400)
	RtyErr    = retry.LastErrorOnly(true)
)

// these errors are considered unrecoverable because they indicate corrupted
// local state or a protocol already past the point of retrying
var unrecoverableErrors = []*sdkErr.Error{
	types.ErrCorruptedRecord,
	types.ErrStateRegression,
	types.ErrWalletFinalized,
	types.ErrDuplicateKey,
}

// IsUnrecoverable returns true when the error is in the unrecoverableErrors list
func IsUnrecoverable(err error) bool {
	for _, e := range unrecoverableErrors {
		// cannot use errors.Is because the unwrapped error
		// is not the expected error type
		if strings.Contains(err.Error(), e.Error()) {
			return true
		}
	}

	return false
}

// economic rejections are normal "not yet" outcomes, not failures
var expectedErrors = []*sdkErr.Error{
	types.ErrBelowMinimumStake,
	types.ErrBelowFee,
	types.ErrOrderBelowFee,
	types.ErrNoCentralPrice,
	types.ErrProvisionBusy,
}

type ExpectedError struct {
	error
}

func (e ExpectedError) Error() string {
	if e.error == nil {
		return "expected error"
	}
	return e.error.Error()
}

func (e ExpectedError) Unwrap() error {
	return e.error
}

// Is adds support for errors.Is usage on isExpected
func (ExpectedError) Is(err error) bool {
	_, isExpected := err.(ExpectedError)
	return isExpected
}

// Expected wraps an error in ExpectedError struct
func Expected(err error) error {
	return ExpectedError{err}
}

// IsExpected checks if error is an instance of ExpectedError or one of the
// registered economic rejections
func IsExpected(err error) bool {
	if errors.Is(err, ExpectedError{}) {
		return true
	}
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
