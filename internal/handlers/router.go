package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"gastos/internal/calendar"
	"gastos/internal/middleware"
	"gastos/internal/services"
)

// Services bundles what the router needs. Streamer and Activity may be nil.
type Services struct {
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Budgets      services.BudgetServicer
	Recurring    services.RecurringServicer
	Scheduler    services.SchedulerServicer
	Activity     services.ActivityServicer
	Streamer     services.BudgetStreamer
	Clock        calendar.Clock
}

// NewRouter builds the gin engine with every route mounted under /api/v1.
func NewRouter(s Services) *gin.Engine {
	categoryHandler := NewCategoryHandler(s.Categories)
	transactionHandler := NewTransactionHandler(s.Transactions)
	budgetHandler := NewBudgetHandler(s.Budgets, s.Streamer, s.Clock)
	recurringHandler := NewRecurringHandler(s.Recurring, s.Scheduler, s.Clock)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	budgets := v1.Group("/budgets")
	budgets.PUT("", budgetHandler.SetBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/stream", budgetHandler.StreamBudgets)
	budgets.GET("/breakdown", budgetHandler.GetBreakdown)
	budgets.GET("/:id/:period", budgetHandler.GetBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Recurring routes
	recurring := v1.Group("/recurring")
	recurring.POST("", recurringHandler.CreateRecurring)
	recurring.GET("", recurringHandler.GetRecurring)
	recurring.POST("/process", recurringHandler.ProcessDue)
	recurring.GET("/:id", recurringHandler.GetRecurringByID)
	recurring.PUT("/:id", recurringHandler.UpdateRecurring)
	recurring.DELETE("/:id", recurringHandler.DeleteRecurring)

	if s.Activity != nil {
		v1.GET("/activity", NewActivityHandler(s.Activity).GetActivity)
	}

	return router
}
