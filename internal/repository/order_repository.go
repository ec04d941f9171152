package repository

import (
	"github.com/jp973/groupnotify-backend/internal/models"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) FindByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) MarkPaid(gatewayOrderID, paymentID string, status models.OrderStatus) error {
	return r.db.Model(&models.Order{}).
		Where("gateway_order_id = ?", gatewayOrderID).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"status":     status,
			"is_paid":    status == models.OrderCaptured,
		}).Error
}
