package policy

import "errors"

// Product rule violations reported to the submitting user
var (
	// ErrBelowMinInitialDeposit rejects a first deposit under the product's
	// or the account's minimum initial value
	ErrBelowMinInitialDeposit = errors.New("initial deposit is below the minimum value")

	// ErrBelowMinDeposit rejects a follow-up deposit under the product minimum
	ErrBelowMinDeposit = errors.New("deposit is below the minimum value")

	// ErrFundNotAcceptingDeposits rejects crowdfunding deposits while the
	// fund is not in the OPEN_DEPOSIT state
	ErrFundNotAcceptingDeposits = errors.New("fund is not accepting deposits")

	// ErrFundDepositAlreadyMade rejects a second contribution from the same
	// account
	ErrFundDepositAlreadyMade = errors.New("a fund deposit was already made for this account")

	// ErrWithdrawNotSupported rejects withdraws on products without them
	ErrWithdrawNotSupported = errors.New("this product does not support withdraw operations")
)
