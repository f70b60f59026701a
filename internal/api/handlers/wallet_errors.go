package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
)

// sendWalletError maps a wallet-domain error to its HTTP response, the one
// place the wallet/rollover error kinds are translated to status codes.
func sendWalletError(c *gin.Context, err error) {
	var domainErr *domainerrors.DomainError
	if !errors.As(err, &domainErr) {
		SendInternalError(c, ErrCodeInternalError, err.Error())
		return
	}

	switch {
	case domainerrors.IsDataNotFound(domainErr):
		SendNotFound(c, domainErr.Code, domainErr.Message)
	case domainerrors.IsWalletAmountNotEnough(domainErr):
		SendBadRequest(c, domainErr.Code, domainErr.Message)
	case domainerrors.IsRolloverNotAchieved(domainErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": domainErr.Code, "message": domainErr.Message})
	case domainerrors.IsGameRollbackAmountError(domainErr):
		SendBadRequest(c, domainErr.Code, domainErr.Message)
	default:
		SendInternalError(c, domainErr.Code, domainErr.Message)
	}
}
