package repository

import (
	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderSort string

const (
	OrderSortCreatedAt OrderSort = "created_at"
	OrderSortTotal     OrderSort = "total"
	OrderSortStatus    OrderSort = "status"
)

// OrderFilter narrows order history queries.
type OrderFilter struct {
	UserID        uint
	Status        *model.OrderStatus
	SortBy        OrderSort
	SortAscending bool
	Limit         int
	Offset        int
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindWithFilter(filter OrderFilter) ([]model.Order, error)
	CountWithFilter(filter OrderFilter) (int64, error)
	FindByID(id uint) (*model.Order, error)
	UpdateStatus(id uint, status model.OrderStatus) error
	Update(order *model.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items").
		Preload("Items.Product")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":    order.UserID,
		"total":      order.Total.String(),
		"item_count": len(order.Items),
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}

func (r *orderRepository) applyFilter(query *gorm.DB, filter OrderFilter) *gorm.DB {
	query = query.Where("user_id = ?", filter.UserID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

func (r *orderRepository) FindWithFilter(filter OrderFilter) ([]model.Order, error) {
	logger.Debug("Finding orders with filter", map[string]interface{}{
		"user_id":   filter.UserID,
		"status":    filter.Status,
		"sort_by":   filter.SortBy,
		"ascending": filter.SortAscending,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	query := r.applyFilter(r.preloadOrder(r.db.Model(&model.Order{})), filter)

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	switch filter.SortBy {
	case OrderSortTotal:
		query = query.Order("total " + direction)
	case OrderSortStatus:
		query = query.Order("status " + direction)
		query = query.Order("created_at DESC")
	case OrderSortCreatedAt:
		fallthrough
	default:
		query = query.Order("created_at " + direction)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders with filter", err, map[string]interface{}{
			"user_id": filter.UserID,
		})
		return nil, err
	}

	logger.Debug("Orders found with filter", map[string]interface{}{
		"user_id": filter.UserID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) CountWithFilter(filter OrderFilter) (int64, error) {
	query := r.applyFilter(r.db.Model(&model.Order{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to count orders with filter", err, map[string]interface{}{
			"user_id": filter.UserID,
		})
		return 0, err
	}
	return count, nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	err := r.preloadOrder(r.db).First(&order, id).Error
	if err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}

	logger.Debug("Order status updated in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
	})

	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}
