package types

import (
	errorsmod "cosmossdk.io/errors"
)

const codespace = "partyd"

var (
	ErrProvisionBusy      = errorsmod.Register(codespace, 1, "a multisig provisioning round is already in progress")
	ErrProvisionDeadline  = errorsmod.Register(codespace, 2, "multisig provisioning round deadline exceeded")
	ErrStateRegression    = errorsmod.Register(codespace, 3, "requested wallet state precedes the current state")
	ErrWalletFinalized    = errorsmod.Register(codespace, 4, "wallet is already ready to send")
	ErrInstanceExists     = errorsmod.Register(codespace, 5, "party instance already formed for this currency")
	ErrNoInstance         = errorsmod.Register(codespace, 6, "no party instance for this currency")
	ErrBelowMinimumStake  = errorsmod.Register(codespace, 7, "stake amount below the currency minimum")
	ErrBelowFee           = errorsmod.Register(codespace, 8, "amount does not cover the network fee")
	ErrOrderBelowFee      = errorsmod.Register(codespace, 9, "order too small to cover fees")
	ErrNoCentralPrice     = errorsmod.Register(codespace, 10, "no central price pair for currency")
	ErrMissingQuote       = errorsmod.Register(codespace, 11, "no USD quote available for currency")
	ErrUnsupportedNetwork = errorsmod.Register(codespace, 12, "external network operations are disabled")
	ErrCorruptedRecord    = errorsmod.Register(codespace, 13, "stored record failed to decode")
	ErrDuplicateKey       = errorsmod.Register(codespace, 14, "public key already present in membership set")
)
