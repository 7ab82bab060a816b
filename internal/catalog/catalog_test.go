package catalog_test

import (
	"context"
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/catalog"
	"github.com/megbaru-hub/teffexpo/internal/memstore"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	merchant = models.Caller{UserID: "merchant-x", Role: models.RoleMerchant}
	rival    = models.Caller{UserID: "merchant-y", Role: models.RoleMerchant}
	shopper  = models.Caller{UserID: "customer-1", Role: models.RoleUser}
)

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*catalog.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	require.NoError(t, store.PutUser(context.Background(), models.User{ID: merchant.UserID, Name: "Merchant X", Role: models.RoleMerchant, Active: true}))
	return catalog.NewService(store), store
}

func createWhite(t *testing.T, svc *catalog.Service) *models.Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), merchant, models.CreateProductRequest{
		Variety:        models.VarietyWhite,
		PricePerKilo:   kg("120"),
		StockAvailable: kg("5"),
		Description:    "  Premium magna teff  ",
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	p := createWhite(t, svc)
	assert.Equal(t, merchant.UserID, p.MerchantID)
	assert.True(t, p.Active)
	assert.Equal(t, "Premium magna teff", p.Description)

	_, err := svc.CreateProduct(ctx, merchant, models.CreateProductRequest{Variety: "Brown", PricePerKilo: kg("1"), StockAvailable: kg("1")})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.CreateProduct(ctx, merchant, models.CreateProductRequest{Variety: models.VarietyRed, PricePerKilo: kg("-1"), StockAvailable: kg("1")})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.CreateProduct(ctx, shopper, models.CreateProductRequest{Variety: models.VarietyRed, PricePerKilo: kg("1"), StockAvailable: kg("1")})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestListProductsFilters(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createWhite(t, svc)
	_, err := svc.CreateProduct(ctx, rival, models.CreateProductRequest{Variety: models.VarietyRed, PricePerKilo: kg("95"), StockAvailable: kg("10")})
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.VarietyRed, all[0].Variety)

	cheap := kg("100")
	under, err := svc.ListProducts(ctx, models.ProductFilter{MaxPrice: &cheap})
	require.NoError(t, err)
	require.Len(t, under, 1)
	assert.Equal(t, rival.UserID, under[0].MerchantID)

	white, err := svc.ListProducts(ctx, models.ProductFilter{Variety: models.VarietyWhite})
	require.NoError(t, err)
	require.Len(t, white, 1)
	assert.Equal(t, "Merchant X", white[0].MerchantName)

	_, err = svc.ListProducts(ctx, models.ProductFilter{Variety: "Brown"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	mine, err := svc.ListMerchantProducts(ctx, rival)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	p := createWhite(t, svc)

	price := kg("130")
	_, err := svc.UpdateProduct(ctx, rival, p.ID, models.UpdateProductRequest{PricePerKilo: &price})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.DeleteProduct(ctx, rival, p.ID)))

	updated, err := svc.UpdateProduct(ctx, merchant, p.ID, models.UpdateProductRequest{PricePerKilo: &price})
	require.NoError(t, err)
	assert.True(t, updated.PricePerKilo.Equal(price))
	assert.True(t, updated.StockAvailable.Equal(kg("5")))

	negative := kg("-2")
	_, err = svc.UpdateProduct(ctx, merchant, p.ID, models.UpdateProductRequest{StockAvailable: &negative})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	require.NoError(t, svc.DeleteProduct(ctx, merchant, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	all, err := svc.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCartCumulativeStockCheck(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	p := createWhite(t, svc)

	cart, err := svc.AddToCart(ctx, shopper, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("3")})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.TotalAmount.Equal(kg("360")))

	_, err = svc.AddToCart(ctx, shopper, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("2.5")})
	assert.Equal(t, apperr.KindOutOfStock, apperr.KindOf(err))

	cart, err = svc.AddToCart(ctx, shopper, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("2")})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].Quantity.Equal(kg("5")))

	_, err = svc.AddToCart(ctx, shopper, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("0.05")})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.AddToCart(ctx, models.Caller{}, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("1")})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCartUpdateRemoveClear(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	p := createWhite(t, svc)

	_, err := svc.UpdateCartItem(ctx, shopper, p.ID, kg("1"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.AddToCart(ctx, shopper, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("1")})
	require.NoError(t, err)

	_, err = svc.UpdateCartItem(ctx, shopper, p.ID, kg("0.09"))
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	cart, err := svc.UpdateCartItem(ctx, shopper, p.ID, kg("0.1"))
	require.NoError(t, err)
	assert.True(t, cart.Items[0].Quantity.Equal(kg("0.1")))

	_, err = svc.UpdateCartItem(ctx, shopper, p.ID, kg("6"))
	assert.Equal(t, apperr.KindOutOfStock, apperr.KindOf(err))

	cart, err = svc.RemoveFromCart(ctx, shopper, p.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.AddToCart(ctx, shopper, models.AddToCartRequest{ProductID: p.ID, Quantity: kg("1")})
	require.NoError(t, err)
	require.NoError(t, svc.ClearCart(ctx, shopper))
	cart, err = svc.GetCart(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())
}
