package service

import (
	"errors"
	"time"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"github.com/mpatel/shopline-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderSource names where the lines of a new order come from. Exactly
// one concrete source is accepted per checkout.
type OrderSource interface {
	orderSource()
}

// CartSource builds the order from the user's current cart and clears
// the cart on success.
type CartSource struct{}

func (CartSource) orderSource() {}

// DirectSource builds a single-line order without touching the cart.
type DirectSource struct {
	ProductID uint
	Quantity  int
}

func (DirectSource) orderSource() {}

// CheckoutInput carries the buyer-provided fields of a checkout.
type CheckoutInput struct {
	Source          OrderSource
	ShippingAddress string
	BillingAddress  string
}

// OrderListOptions controls paging and ordering of order history.
type OrderListOptions struct {
	Page          int
	PageSize      int
	Status        *model.OrderStatus
	SortBy        repository.OrderSort
	SortAscending bool
}

func (o OrderListOptions) limitOffset() (int, int) {
	page := o.Page
	if page < 1 {
		page = 1
	}
	size := o.PageSize
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return size, (page - 1) * size
}

// TrackingUpdate is one step of an order's delivery history.
type TrackingUpdate struct {
	Status      model.OrderStatus `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Description string            `json:"description"`
}

// TrackingInfo is the delivery view of an order.
type TrackingInfo struct {
	OrderID           uint              `json:"order_id"`
	Status            model.OrderStatus `json:"status"`
	TrackingNumber    string            `json:"tracking_number,omitempty"`
	Carrier           string            `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery,omitempty"`
	Updates           []TrackingUpdate  `json:"updates"`
}

type OrderService interface {
	Checkout(userID uint, input CheckoutInput) (*model.Order, error)
	GetUserOrders(userID uint, opts OrderListOptions) ([]model.Order, int64, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	GetOrderTracking(userID, orderID uint) (*TrackingInfo, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	taxRate     float64
	shippingFee float64
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	taxRate float64,
	shippingFee float64,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		taxRate:     taxRate,
		shippingFee: shippingFee,
	}
}

// checkoutLine is one resolved order line before stock is committed.
type checkoutLine struct {
	ProductID uint
	Quantity  int
}

// resolveLines turns the checkout source into concrete product lines.
// For a cart source the cart must have at least one item.
func (s *orderService) resolveLines(userID uint, source OrderSource) ([]checkoutLine, *model.Cart, error) {
	switch src := source.(type) {
	case CartSource:
		cart, err := s.cartRepo.FindOrCreateByUserID(userID)
		if err != nil {
			return nil, nil, err
		}
		if len(cart.Items) == 0 {
			return nil, nil, ErrEmptyCart
		}
		lines := make([]checkoutLine, 0, len(cart.Items))
		for _, item := range cart.Items {
			lines = append(lines, checkoutLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		return lines, cart, nil
	case DirectSource:
		if src.Quantity <= 0 {
			return nil, nil, ErrInsufficientStock
		}
		return []checkoutLine{{ProductID: src.ProductID, Quantity: src.Quantity}}, nil, nil
	default:
		return nil, nil, errors.New("unknown order source")
	}
}

// Checkout converts the source lines into an order inside a single
// transaction. Product rows are locked, stock is verified and
// decremented, and the cart is cleared only when it was the source.
// Any failure rolls the whole thing back.
func (s *orderService) Checkout(userID uint, input CheckoutInput) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id": userID,
	})

	lines, cart, err := s.resolveLines(userID, input.Source)
	if err != nil {
		logger.Warn("Checkout rejected", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	subtotal := model.MoneyFromFloat(0)
	orderItems := make([]model.OrderItem, 0, len(lines))

	for _, line := range lines {
		var product model.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND deleted = ?", line.ProductID, false).
			First(&product).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		if !product.Active {
			tx.Rollback()
			return nil, ErrProductUnavailable
		}
		if product.AvailableQuantity() < line.Quantity {
			logger.Warn("Checkout failed: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
				"requested":  line.Quantity,
				"available":  product.AvailableQuantity(),
			})
			tx.Rollback()
			return nil, ErrInsufficientStock
		}

		err = tx.Model(&model.Product{}).
			Where("id = ?", product.ID).
			Update("quantity", gorm.Expr("quantity - ?", line.Quantity)).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		lineTotal := product.Price.MulInt(line.Quantity)
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		})
	}

	tax := subtotal.MulRate(s.taxRate)
	shipping := model.MoneyFromFloat(s.shippingFee)
	discount := model.MoneyFromFloat(0)
	total := subtotal.Add(tax).Add(shipping).Sub(discount)

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingFee:     shipping,
		Discount:        discount,
		Total:           total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Items:           orderItems,
	}
	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if cart != nil {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.Info("Checkout completed successfully", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    total.String(),
	})
	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetUserOrders(userID uint, opts OrderListOptions) ([]model.Order, int64, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
		"page":    opts.Page,
	})

	limit, offset := opts.limitOffset()
	filter := repository.OrderFilter{
		UserID:        userID,
		Status:        opts.Status,
		SortBy:        opts.SortBy,
		SortAscending: opts.SortAscending,
		Limit:         limit,
		Offset:        offset,
	}

	orders, err := s.orderRepo.FindWithFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountWithFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderTracking builds the delivery view from the order's status
// and timestamps. There is no carrier integration; the history is
// derived from what the order itself records.
func (s *orderService) GetOrderTracking(userID, orderID uint) (*TrackingInfo, error) {
	order, err := s.GetOrderByID(userID, orderID)
	if err != nil {
		return nil, err
	}

	info := &TrackingInfo{
		OrderID:           order.ID,
		Status:            order.Status,
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		EstimatedDelivery: order.EstimatedDelivery,
		Updates: []TrackingUpdate{
			{
				Status:      model.OrderStatusPending,
				Timestamp:   order.CreatedAt,
				Description: "Order placed",
			},
		},
	}

	progression := []struct {
		status      model.OrderStatus
		description string
	}{
		{model.OrderStatusConfirmed, "Order confirmed"},
		{model.OrderStatusShipped, "Package shipped"},
		{model.OrderStatusDelivered, "Package delivered"},
	}
	for _, step := range progression {
		if !statusReached(order.Status, step.status) {
			break
		}
		info.Updates = append(info.Updates, TrackingUpdate{
			Status:      step.status,
			Timestamp:   order.UpdatedAt,
			Description: step.description,
		})
	}
	if order.Status == model.OrderStatusCancelled {
		info.Updates = append(info.Updates, TrackingUpdate{
			Status:      model.OrderStatusCancelled,
			Timestamp:   order.UpdatedAt,
			Description: "Order cancelled",
		})
	}
	return info, nil
}

// statusReached reports whether an order in the current status has
// passed through the given milestone.
func statusReached(current, milestone model.OrderStatus) bool {
	rank := map[model.OrderStatus]int{
		model.OrderStatusPending:   0,
		model.OrderStatusConfirmed: 1,
		model.OrderStatusShipped:   2,
		model.OrderStatusDelivered: 3,
	}
	cur, ok := rank[current]
	if !ok {
		return false
	}
	return cur >= rank[milestone]
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	if !model.ValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order.Status = status
	if status == model.OrderStatusShipped && order.TrackingNumber == "" {
		order.TrackingNumber = util.GenerateTrackingNumber()
		order.Carrier = "SHOPLINE-EXPRESS"
		eta := time.Now().Add(5 * 24 * time.Hour)
		order.EstimatedDelivery = &eta
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	logger.Info("Order status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return s.orderRepo.FindByID(orderID)
}
