package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/app/service"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubShareStore backs the share endpoints with a plain map.
type stubShareStore struct {
	snapshots map[string][]byte
}

func (s *stubShareStore) Save(ctx context.Context, shareID string, payload []byte, ttl time.Duration) error {
	s.snapshots[shareID] = payload
	return nil
}

func (s *stubShareStore) Get(ctx context.Context, shareID string) ([]byte, error) {
	return s.snapshots[shareID], nil
}

// asUser stands in for the auth middleware and pins the request identity.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", model.RoleUser)
		c.Next()
	}
}

func setupCartControllerTest(t *testing.T) (*gin.Engine, *gorm.DB, *model.User, *model.Product) {
	gin.SetMode(gin.TestMode)

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

	cartService := service.NewCartService(
		repository.NewCartRepository(testDB),
		repository.NewProductRepository(testDB),
		repository.NewWishlistRepository(testDB),
		&stubShareStore{snapshots: make(map[string][]byte)},
		time.Hour,
		map[string]float64{"standard": 5.0},
	)
	ctrl := NewCartController(cartService, 0.1)

	router := gin.New()
	router.GET("/cart/shared/:share_id", ctrl.GetSharedCart)

	authed := router.Group("/cart", asUser(user.ID))
	authed.GET("", ctrl.GetCart)
	authed.DELETE("", ctrl.ClearCart)
	authed.POST("/items", ctrl.AddCartItem)
	authed.GET("/calculate", ctrl.CalculateTotal)
	authed.POST("/share", ctrl.ShareCart)

	return router, testDB, user, product
}

func TestCartController_GetCart(t *testing.T) {
	router, _, _, _ := setupCartControllerTest(t)

	req := httptest.NewRequest("GET", "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items"`)
}

func TestCartController_AddCartItem(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Item added to cart", response["message"])
}

func TestCartController_AddCartItem_UnknownProduct(t *testing.T) {
	router, _, _, _ := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: 9999,
		Quantity:  1,
	}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Product not found")
}

func TestCartController_AddCartItem_InsufficientStock(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: product.ID,
		Quantity:  11,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock")
}

func TestCartController_AddCartItem_InvalidBody(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: product.ID,
		Quantity:  0,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_ClearCart(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: product.ID,
		Quantity:  1,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest("DELETE", "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCartController_CalculateTotal(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest("GET", "/cart/calculate?shipping_method=standard", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var total service.CartTotal
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &total))
	assert.Equal(t, "25.00", total.Subtotal.String())
	assert.Equal(t, "2.50", total.Tax.String())
	assert.Equal(t, "5.00", total.Shipping.String())
	assert.Equal(t, "32.50", total.Total.String())
	assert.Equal(t, 2, total.ItemCount)
}

func TestCartController_ShareAndFetchSharedCart(t *testing.T) {
	router, _, _, product := setupCartControllerTest(t)

	w := postJSON(t, router, "/cart/items", addCartItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/cart/share", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ShareID string `json:"share_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.ShareID)

	// The snapshot is readable without authentication
	req := httptest.NewRequest("GET", "/cart/shared/"+response.ShareID, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Ceramic Mug")
}

func TestCartController_GetSharedCart_NotFound(t *testing.T) {
	router, _, _, _ := setupCartControllerTest(t)

	req := httptest.NewRequest("GET", "/cart/shared/no-such-share", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
