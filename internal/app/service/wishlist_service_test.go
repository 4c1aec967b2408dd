package service

import (
	"testing"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupWishlistServiceTest(t *testing.T) (WishlistService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	user := &model.User{
		Email:        "saver@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         "Saver",
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

	service := NewWishlistService(
		repository.NewWishlistRepository(testDB),
		repository.NewProductRepository(testDB),
	)
	return service, testDB, user, product
}

func TestWishlistService_AddToWishlist(t *testing.T) {
	service, _, user, product := setupWishlistServiceTest(t)

	item, err := service.AddToWishlist(user.ID, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, product.ID, item.ProductID)
	assert.Equal(t, 2, item.Quantity)
}

func TestWishlistService_AddToWishlist_MergesQuantities(t *testing.T) {
	service, _, user, product := setupWishlistServiceTest(t)

	_, err := service.AddToWishlist(user.ID, product.ID, 2)
	require.NoError(t, err)

	item, err := service.AddToWishlist(user.ID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	items, err := service.GetWishlist(user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWishlistService_AddToWishlist_DefaultsQuantity(t *testing.T) {
	service, _, user, product := setupWishlistServiceTest(t)

	item, err := service.AddToWishlist(user.ID, product.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestWishlistService_AddToWishlist_UnknownProduct(t *testing.T) {
	service, _, user, _ := setupWishlistServiceTest(t)

	_, err := service.AddToWishlist(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestWishlistService_RemoveFromWishlist(t *testing.T) {
	service, _, user, product := setupWishlistServiceTest(t)

	_, err := service.AddToWishlist(user.ID, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, service.RemoveFromWishlist(user.ID, product.ID))

	items, err := service.GetWishlist(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWishlistService_RemoveFromWishlist_NotFound(t *testing.T) {
	service, _, user, product := setupWishlistServiceTest(t)

	err := service.RemoveFromWishlist(user.ID, product.ID)
	assert.ErrorIs(t, err, ErrWishlistItemNotFound)
}
