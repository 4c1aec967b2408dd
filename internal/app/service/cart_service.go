package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidCoupon      = errors.New("invalid coupon code")
	ErrSharedCartNotFound = errors.New("shared cart not found")
)

// ShareStore persists shared cart snapshots under a share ID with a
// bounded lifetime.
type ShareStore interface {
	Save(ctx context.Context, shareID string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, shareID string) ([]byte, error)
}

// BulkAddItem is one line of a bulk add request.
type BulkAddItem struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// BulkUpdateItem is one line of a bulk quantity update.
type BulkUpdateItem struct {
	CartItemID uint `json:"cart_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,gt=0"`
}

// CartTotal is a price breakdown computed from the current cart state.
// Nothing is persisted when it is produced.
type CartTotal struct {
	Subtotal  model.Money `json:"subtotal"`
	Tax       model.Money `json:"tax"`
	Shipping  model.Money `json:"shipping"`
	Discount  model.Money `json:"discount"`
	Total     model.Money `json:"total"`
	ItemCount int         `json:"item_count"`
}

// CartIssue describes why a cart line cannot be fulfilled right now.
type CartIssue struct {
	CartItemID uint   `json:"cart_item_id"`
	ProductID  uint   `json:"product_id"`
	Reason     string `json:"reason"`
	Requested  int    `json:"requested,omitempty"`
	Available  int    `json:"available,omitempty"`
}

// CartValidation is the result of a read-only fulfillability check.
type CartValidation struct {
	Valid  bool        `json:"valid"`
	Issues []CartIssue `json:"issues"`
}

// SharedCartSnapshot is the read-only view stored when a cart is shared.
type SharedCartSnapshot struct {
	ShareID   string           `json:"share_id"`
	UserID    uint             `json:"user_id"`
	Items     []SharedCartItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}

type SharedCartItem struct {
	ProductID   uint        `json:"product_id"`
	ProductName string      `json:"product_name"`
	UnitPrice   model.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
}

type CartService interface {
	GetCart(userID uint) (*model.Cart, error)
	AddToCart(userID, productID uint, quantity int) (*model.Cart, error)
	UpdateCartItem(userID, itemID uint, quantity int) (*model.Cart, error)
	RemoveCartItem(userID, itemID uint) (*model.Cart, error)
	ClearCart(userID uint) error
	BulkAdd(userID uint, items []BulkAddItem) (*model.Cart, error)
	BulkUpdate(userID uint, items []BulkUpdateItem) (*model.Cart, error)
	BulkRemove(userID uint, itemIDs []uint) (*model.Cart, error)
	ApplyCoupon(userID uint, code string) (*model.Cart, error)
	RemoveCoupon(userID uint) (*model.Cart, error)
	CalculateTotal(userID uint, taxRate float64, shippingMethod string) (*CartTotal, error)
	ValidateCart(userID uint) (*CartValidation, error)
	MoveToWishlist(userID, itemID uint) error
	MoveFromWishlist(userID, productID uint, quantity int) (*model.Cart, error)
	ShareCart(ctx context.Context, userID uint) (*SharedCartSnapshot, error)
	GetSharedCart(ctx context.Context, shareID string) (*SharedCartSnapshot, error)
}

type cartService struct {
	cartRepo        repository.CartRepository
	productRepo     repository.ProductRepository
	wishlistRepo    repository.WishlistRepository
	shareStore      ShareStore
	shareTTL        time.Duration
	shippingMethods map[string]float64
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	wishlistRepo repository.WishlistRepository,
	shareStore ShareStore,
	shareTTL time.Duration,
	shippingMethods map[string]float64,
) CartService {
	return &cartService{
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		wishlistRepo:    wishlistRepo,
		shareStore:      shareStore,
		shareTTL:        shareTTL,
		shippingMethods: shippingMethods,
	}
}

func (s *cartService) GetCart(userID uint) (*model.Cart, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return cart, nil
}

// lookupProduct resolves a sellable product or the matching domain error.
func (s *cartService) lookupProduct(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Active {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

func (s *cartService) AddToCart(userID, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	product, err := s.lookupProduct(productID)
	if err != nil {
		logger.Warn("Cannot add product to cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"reason":     err.Error(),
		})
		return nil, err
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	// Adding a product already in the cart merges into the existing line.
	newQuantity := quantity
	existing, err := s.cartRepo.FindItemByCartAndProduct(cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		newQuantity += existing.Quantity
	}

	if product.AvailableQuantity() < newQuantity {
		logger.Warn("Insufficient stock for cart item", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"requested":  newQuantity,
			"available":  product.AvailableQuantity(),
		})
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		existing.Quantity = newQuantity
		if err := s.cartRepo.UpdateItem(existing); err != nil {
			return nil, err
		}
	} else {
		item := &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	}

	logger.Info("Item added to cart successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   newQuantity,
	})
	return s.cartRepo.FindByUserID(userID)
}

// ownedItem loads a cart item and verifies it belongs to the user's
// cart. A foreign item is reported as not found.
func (s *cartService) ownedItem(userID, itemID uint) (*model.CartItem, error) {
	item, err := s.cartRepo.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if item.Cart.UserID != userID {
		logger.Warn("Cart item access denied: ownership mismatch", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
			"owner_id":     item.Cart.UserID,
		})
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

func (s *cartService) UpdateCartItem(userID, itemID uint, quantity int) (*model.Cart, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
		"quantity":     quantity,
	})

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.lookupProduct(item.ProductID)
	if err != nil {
		return nil, err
	}
	if product.AvailableQuantity() < quantity {
		logger.Warn("Insufficient stock for cart update", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
			"requested":    quantity,
			"available":    product.AvailableQuantity(),
		})
		return nil, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.cartRepo.UpdateItem(item); err != nil {
		return nil, err
	}

	logger.Info("Cart item updated successfully", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) RemoveCartItem(userID, itemID uint) (*model.Cart, error) {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return nil, err
	}

	logger.Info("Cart item removed successfully", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return err
	}
	return s.cartRepo.DeleteItemsByCartID(cart.ID)
}

func (s *cartService) BulkAdd(userID uint, items []BulkAddItem) (*model.Cart, error) {
	logger.Info("Bulk adding items to cart", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})

	for _, item := range items {
		if _, err := s.AddToCart(userID, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) BulkUpdate(userID uint, items []BulkUpdateItem) (*model.Cart, error) {
	logger.Info("Bulk updating cart items", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})

	for _, item := range items {
		if _, err := s.UpdateCartItem(userID, item.CartItemID, item.Quantity); err != nil {
			return nil, err
		}
	}
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) BulkRemove(userID uint, itemIDs []uint) (*model.Cart, error) {
	logger.Info("Bulk removing cart items", map[string]interface{}{
		"user_id": userID,
		"count":   len(itemIDs),
	})

	for _, itemID := range itemIDs {
		if _, err := s.RemoveCartItem(userID, itemID); err != nil {
			return nil, err
		}
	}
	return s.cartRepo.FindByUserID(userID)
}

// ApplyCoupon records a coupon on the cart. Validation is a placeholder
// until a coupon rule engine exists: any non-empty code is accepted and
// contributes no discount.
func (s *cartService) ApplyCoupon(userID uint, code string) (*model.Cart, error) {
	logger.Info("Applying coupon to cart", map[string]interface{}{
		"user_id": userID,
		"code":    code,
	})

	if code == "" {
		return nil, ErrInvalidCoupon
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	cart.CouponCode = code
	if err := s.cartRepo.Update(cart); err != nil {
		return nil, err
	}
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) RemoveCoupon(userID uint) (*model.Cart, error) {
	logger.Info("Removing coupon from cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	cart.CouponCode = ""
	if err := s.cartRepo.Update(cart); err != nil {
		return nil, err
	}
	return s.cartRepo.FindByUserID(userID)
}

// couponDiscount is the hook where coupon rules would price a discount.
// Until rules exist every coupon is worth zero.
func (s *cartService) couponDiscount(cart *model.Cart, subtotal model.Money) model.Money {
	return model.MoneyFromFloat(0)
}

// CalculateTotal prices the cart from its current state: subtotal over
// the lines, tax at the caller's rate, shipping from the method table,
// minus the coupon discount. The cart is not modified.
func (s *cartService) CalculateTotal(userID uint, taxRate float64, shippingMethod string) (*CartTotal, error) {
	logger.Debug("Calculating cart total", map[string]interface{}{
		"user_id":         userID,
		"tax_rate":        taxRate,
		"shipping_method": shippingMethod,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	subtotal := model.MoneyFromFloat(0)
	itemCount := 0
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.Product.Price.MulInt(item.Quantity))
		itemCount += item.Quantity
	}

	tax := subtotal.MulRate(taxRate)
	shipping := model.MoneyFromFloat(s.shippingMethods[shippingMethod])
	discount := s.couponDiscount(cart, subtotal)
	total := subtotal.Add(tax).Add(shipping).Sub(discount)

	logger.Debug("Cart total calculated", map[string]interface{}{
		"user_id":  userID,
		"subtotal": subtotal.String(),
		"total":    total.String(),
	})

	return &CartTotal{
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Discount:  discount,
		Total:     total,
		ItemCount: itemCount,
	}, nil
}

// ValidateCart checks every line against current availability. It only
// reports issues; nothing is reserved or changed.
func (s *cartService) ValidateCart(userID uint) (*CartValidation, error) {
	logger.Debug("Validating cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	validation := &CartValidation{Valid: true, Issues: []CartIssue{}}
	for _, item := range cart.Items {
		product, err := s.productRepo.FindByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				validation.Issues = append(validation.Issues, CartIssue{
					CartItemID: item.ID,
					ProductID:  item.ProductID,
					Reason:     "product no longer exists",
				})
				continue
			}
			return nil, err
		}
		if !product.Active {
			validation.Issues = append(validation.Issues, CartIssue{
				CartItemID: item.ID,
				ProductID:  item.ProductID,
				Reason:     "product is not available",
			})
			continue
		}
		if product.AvailableQuantity() < item.Quantity {
			validation.Issues = append(validation.Issues, CartIssue{
				CartItemID: item.ID,
				ProductID:  item.ProductID,
				Reason:     "insufficient stock",
				Requested:  item.Quantity,
				Available:  product.AvailableQuantity(),
			})
		}
	}
	validation.Valid = len(validation.Issues) == 0

	logger.Debug("Cart validated", map[string]interface{}{
		"user_id":     userID,
		"valid":       validation.Valid,
		"issue_count": len(validation.Issues),
	})
	return validation, nil
}

func (s *cartService) MoveToWishlist(userID, itemID uint) error {
	logger.Info("Moving cart item to wishlist", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}

	existing, err := s.wishlistRepo.FindByUserAndProduct(userID, item.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		existing.Quantity += item.Quantity
		if err := s.wishlistRepo.Update(existing); err != nil {
			return err
		}
	} else {
		wishlistItem := &model.WishlistItem{
			UserID:    userID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if err := s.wishlistRepo.Create(wishlistItem); err != nil {
			return err
		}
	}

	if err := s.cartRepo.DeleteItem(item.ID); err != nil {
		return err
	}

	logger.Info("Cart item moved to wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": item.ProductID,
	})
	return nil
}

func (s *cartService) MoveFromWishlist(userID, productID uint, quantity int) (*model.Cart, error) {
	logger.Info("Moving wishlist item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	wishlistItem, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWishlistItemNotFound
		}
		return nil, err
	}

	if quantity <= 0 {
		quantity = wishlistItem.Quantity
	}

	cart, err := s.AddToCart(userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	if err := s.wishlistRepo.DeleteByUserAndProduct(userID, productID); err != nil {
		return nil, err
	}

	logger.Info("Wishlist item moved to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return cart, nil
}

// ShareCart stores a read-only snapshot of the cart under a fresh
// share ID. The snapshot expires after the configured TTL.
func (s *cartService) ShareCart(ctx context.Context, userID uint) (*SharedCartSnapshot, error) {
	logger.Info("Sharing cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	snapshot := &SharedCartSnapshot{
		ShareID:   uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	for _, item := range cart.Items {
		snapshot.Items = append(snapshot.Items, SharedCartItem{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
		})
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	if err := s.shareStore.Save(ctx, snapshot.ShareID, payload, s.shareTTL); err != nil {
		logger.Error("Failed to store shared cart snapshot", err, map[string]interface{}{
			"user_id":  userID,
			"share_id": snapshot.ShareID,
		})
		return nil, err
	}

	logger.Info("Cart shared successfully", map[string]interface{}{
		"user_id":  userID,
		"share_id": snapshot.ShareID,
	})
	return snapshot, nil
}

func (s *cartService) GetSharedCart(ctx context.Context, shareID string) (*SharedCartSnapshot, error) {
	logger.Debug("Fetching shared cart", map[string]interface{}{
		"share_id": shareID,
	})

	payload, err := s.shareStore.Get(ctx, shareID)
	if err != nil {
		logger.Error("Failed to fetch shared cart snapshot", err, map[string]interface{}{
			"share_id": shareID,
		})
		return nil, err
	}
	if payload == nil {
		return nil, ErrSharedCartNotFound
	}

	var snapshot SharedCartSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
