package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/playerwallet/wallet-service/internal/api/handlers"
)

// RegisterPlayerWalletRoutes registers the game and payment facet routes.
// Both facets are called server-to-server by game providers and payment
// processors identified by client_id in the request, with no player
// session authentication.
func RegisterPlayerWalletRoutes(
	v1 *gin.RouterGroup,
	gameHandlers *handlers.GameWalletHandlers,
	paymentHandlers *handlers.PaymentWalletHandlers,
) {
	game := v1.Group("/game/wallet")
	{
		game.GET("/balance", gameHandlers.GetBalance)
		game.POST("/deposit", gameHandlers.Deposit)
		game.POST("/withdraw", gameHandlers.Withdraw)
		game.POST("/rollback", gameHandlers.Rollback)
		game.POST("/update", gameHandlers.Update)
	}

	payment := v1.Group("/payment/wallet")
	{
		payment.GET("", paymentHandlers.Get)
		payment.POST("/deposit", paymentHandlers.Deposit)
		payment.POST("/withdraw", paymentHandlers.Withdraw)
		payment.POST("/reject", paymentHandlers.Reject)
		payment.POST("/rollback", paymentHandlers.Rollback)
	}
	v1.GET("/payment/wallets", paymentHandlers.GetList)
}
