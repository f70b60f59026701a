package errors

import "errors"

// Wallet-engine-specific error categories, layered onto the same
// DomainError idiom as the rest of this package.
var (
	// ErrDataNotFound indicates a wallet-domain row (wallet, rollover main,
	// transaction chain) was not found. Kept distinct from ErrNotFound so
	// handlers can map it to the wallet facet's DATA_NOT_FOUND code.
	ErrDataNotFound = errors.New("wallet data not found")

	// ErrWalletAmountNotEnough indicates a withdrawal or rollback would
	// take a wallet balance negative.
	ErrWalletAmountNotEnough = errors.New("wallet amount not enough")

	// ErrRolloverNotAchieved indicates a payment withdrawal was attempted
	// before the wagering requirement was cleared.
	ErrRolloverNotAchieved = errors.New("rollover requirement not achieved")

	// ErrGameRollbackAmountError indicates an update request's old_amount
	// did not match the amount actually recorded on the transaction chain.
	ErrGameRollbackAmountError = errors.New("game rollback amount mismatch")
)

// DataNotFoundError creates a DATA_NOT_FOUND domain error for the named
// wallet-domain resource.
func DataNotFoundError(resource string) *DomainError {
	return &DomainError{
		Err:     ErrDataNotFound,
		Code:    "DATA_NOT_FOUND",
		Message: resource + " not found",
	}
}

// WalletAmountNotEnoughError creates a WALLET_AMOUNT_NOT_ENOUGH domain error.
func WalletAmountNotEnoughError() *DomainError {
	return &DomainError{
		Err:     ErrWalletAmountNotEnough,
		Code:    "WALLET_AMOUNT_NOT_ENOUGH",
		Message: "wallet balance is not sufficient for this operation",
	}
}

// RolloverNotAchievedError creates a ROLLOVER_NOT_ACHIEVED domain error.
func RolloverNotAchievedError() *DomainError {
	return &DomainError{
		Err:     ErrRolloverNotAchieved,
		Code:    "ROLLOVER_NOT_ACHIEVED",
		Message: "rollover requirement has not been achieved",
	}
}

// GameRollbackAmountErrorf creates a GAME_ROLLBACK_AMOUNT_ERROR domain error.
func GameRollbackAmountErrorf() *DomainError {
	return &DomainError{
		Err:     ErrGameRollbackAmountError,
		Code:    "GAME_ROLLBACK_AMOUNT_ERROR",
		Message: "old_amount does not match the recorded transaction amount",
	}
}

// IsDataNotFound checks if an error is a wallet-domain not-found error.
func IsDataNotFound(err error) bool {
	return errors.Is(err, ErrDataNotFound)
}

// IsWalletAmountNotEnough checks if an error is an insufficient-balance error.
func IsWalletAmountNotEnough(err error) bool {
	return errors.Is(err, ErrWalletAmountNotEnough)
}

// IsRolloverNotAchieved checks if an error is a rollover-gate error.
func IsRolloverNotAchieved(err error) bool {
	return errors.Is(err, ErrRolloverNotAchieved)
}

// IsGameRollbackAmountError checks if an error is an amount-mismatch error.
func IsGameRollbackAmountError(err error) bool {
	return errors.Is(err, ErrGameRollbackAmountError)
}
