package service

import (
	"context"
	"testing"
	"time"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryShareStore keeps snapshots in a map so share tests need no Redis.
type memoryShareStore struct {
	snapshots map[string][]byte
}

func newMemoryShareStore() *memoryShareStore {
	return &memoryShareStore{snapshots: make(map[string][]byte)}
}

func (m *memoryShareStore) Save(ctx context.Context, shareID string, payload []byte, ttl time.Duration) error {
	m.snapshots[shareID] = payload
	return nil
}

func (m *memoryShareStore) Get(ctx context.Context, shareID string) ([]byte, error) {
	return m.snapshots[shareID], nil
}

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	user := &model.User{
		Email:        "shopper@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         "Shopper",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	product := &model.Product{
		Name:     "Ceramic Mug",
		SKU:      "MUG-001",
		Price:    model.MoneyFromFloat(12.50),
		Quantity: 10,
		Active:   true,
	}
	require.NoError(t, testDB.Create(product).Error)

	service := NewCartService(
		repository.NewCartRepository(testDB),
		repository.NewProductRepository(testDB),
		repository.NewWishlistRepository(testDB),
		newMemoryShareStore(),
		time.Hour,
		map[string]float64{"standard": 5.0, "express": 12.0},
	)
	return service, testDB, user, product
}

func TestCartService_AddToCart(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	cart, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, product.ID, cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartService_AddToCart_MergesExistingLine(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := service.AddToCart(user.ID, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartService_AddToCart_UnknownProduct(t *testing.T) {
	service, _, user, _ := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddToCart_InactiveProduct(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)
	require.NoError(t, testDB.Model(product).Update("active", false).Error)

	_, err := service.AddToCart(user.ID, product.ID, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestCartService_AddToCart_InsufficientStock(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 8)
	require.NoError(t, err)

	// 8 already in the cart plus 3 more exceeds the 10 in stock
	_, err = service.AddToCart(user.ID, product.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_UpdateCartItem(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	cart, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	updated, err := service.UpdateCartItem(user.ID, cart.Items[0].ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Items[0].Quantity)

	_, err = service.UpdateCartItem(user.ID, cart.Items[0].ID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_UpdateCartItem_ForeignItem(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)

	cart, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         "Other",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(other).Error)

	_, err = service.UpdateCartItem(other.ID, cart.Items[0].ID, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveCartItem(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	cart, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	updated, err := service.RemoveCartItem(user.ID, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Items)

	_, err = service.RemoveCartItem(user.ID, cart.Items[0].ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_ClearCart(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, service.ClearCart(user.ID))

	cart, err := service.GetCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_BulkAdd(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)

	second := &model.Product{
		Name:     "Tea Kettle",
		SKU:      "KETTLE-001",
		Price:    model.MoneyFromFloat(30.00),
		Quantity: 5,
		Active:   true,
	}
	require.NoError(t, testDB.Create(second).Error)

	cart, err := service.BulkAdd(user.ID, []BulkAddItem{
		{ProductID: product.ID, Quantity: 2},
		{ProductID: second.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCartService_BulkUpdateAndRemove(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	cart, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = service.BulkUpdate(user.ID, []BulkUpdateItem{
		{CartItemID: itemID, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	cart, err = service.BulkRemove(user.ID, []uint{itemID})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_ApplyAndRemoveCoupon(t *testing.T) {
	service, _, user, _ := setupCartServiceTest(t)

	cart, err := service.ApplyCoupon(user.ID, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", cart.CouponCode)

	cart, err = service.RemoveCoupon(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.CouponCode)
}

func TestCartService_ApplyCoupon_EmptyCode(t *testing.T) {
	service, _, user, _ := setupCartServiceTest(t)

	_, err := service.ApplyCoupon(user.ID, "")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestCartService_CalculateTotal(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	// 2 x 12.50 = 25.00, tax 2.50, express shipping 12.00
	total, err := service.CalculateTotal(user.ID, 0.1, "express")
	require.NoError(t, err)
	assert.Equal(t, "25.00", total.Subtotal.String())
	assert.Equal(t, "2.50", total.Tax.String())
	assert.Equal(t, "12.00", total.Shipping.String())
	assert.Equal(t, "0.00", total.Discount.String())
	assert.Equal(t, "39.50", total.Total.String())
	assert.Equal(t, 2, total.ItemCount)
}

func TestCartService_CalculateTotal_UnknownShippingMethod(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	total, err := service.CalculateTotal(user.ID, 0, "carrier-pigeon")
	require.NoError(t, err)
	assert.Equal(t, "0.00", total.Shipping.String())
	assert.Equal(t, "12.50", total.Total.String())
}

func TestCartService_ValidateCart(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 5)
	require.NoError(t, err)

	validation, err := service.ValidateCart(user.ID)
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	assert.Empty(t, validation.Issues)

	// Stock drops below the cart line after the fact
	require.NoError(t, testDB.Model(product).Update("quantity", 3).Error)

	validation, err = service.ValidateCart(user.ID)
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	require.Len(t, validation.Issues, 1)
	assert.Equal(t, "insufficient stock", validation.Issues[0].Reason)
	assert.Equal(t, 5, validation.Issues[0].Requested)
	assert.Equal(t, 3, validation.Issues[0].Available)

	// Validation never mutates the cart
	cart, err := service.GetCart(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartService_ValidateCart_InactiveProduct(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)

	_, err := service.AddToCart(user.ID, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, testDB.Model(product).Update("active", false).Error)

	validation, err := service.ValidateCart(user.ID)
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	require.Len(t, validation.Issues, 1)
	assert.Equal(t, "product is not available", validation.Issues[0].Reason)
}

func TestCartService_MoveToWishlist(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)

	cart, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, service.MoveToWishlist(user.ID, cart.Items[0].ID))

	cart, err = service.GetCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	var wishlistItem model.WishlistItem
	require.NoError(t, testDB.Where("user_id = ? AND product_id = ?", user.ID, product.ID).
		First(&wishlistItem).Error)
	assert.Equal(t, 2, wishlistItem.Quantity)
}

func TestCartService_MoveFromWishlist(t *testing.T) {
	service, testDB, user, product := setupCartServiceTest(t)

	item := &model.WishlistItem{UserID: user.ID, ProductID: product.ID, Quantity: 3}
	require.NoError(t, testDB.Create(item).Error)

	// Zero quantity falls back to the wishlist quantity
	cart, err := service.MoveFromWishlist(user.ID, product.ID, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	var count int64
	require.NoError(t, testDB.Model(&model.WishlistItem{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCartService_MoveFromWishlist_NotFound(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)

	_, err := service.MoveFromWishlist(user.ID, product.ID, 1)
	assert.ErrorIs(t, err, ErrWishlistItemNotFound)
}

func TestCartService_ShareCart(t *testing.T) {
	service, _, user, product := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := service.AddToCart(user.ID, product.ID, 2)
	require.NoError(t, err)

	snapshot, err := service.ShareCart(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, snapshot.ShareID)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, product.Name, snapshot.Items[0].ProductName)

	fetched, err := service.GetSharedCart(ctx, snapshot.ShareID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ShareID, fetched.ShareID)
	assert.Equal(t, user.ID, fetched.UserID)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "12.50", fetched.Items[0].UnitPrice.String())
	assert.Equal(t, 2, fetched.Items[0].Quantity)
}

func TestCartService_GetSharedCart_NotFound(t *testing.T) {
	service, _, _, _ := setupCartServiceTest(t)

	_, err := service.GetSharedCart(context.Background(), "no-such-share")
	assert.ErrorIs(t, err, ErrSharedCartNotFound)
}
