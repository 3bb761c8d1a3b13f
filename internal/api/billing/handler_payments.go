package billing

import (
	"net/http"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// GET /api/billing/payments
func GetPaymentHistory(c *gin.Context) {
	var payments []billing.Payment
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("Plan").
		Where("user_id = ?", c.GetUint("user_id")).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
