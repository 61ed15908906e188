package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/models"
)

type capturingPublisher struct {
	mu     sync.Mutex
	orders []uint
	done   chan struct{}
}

func (p *capturingPublisher) PublishOrderCreated(order *models.Order) error {
	p.mu.Lock()
	p.orders = append(p.orders, order.ID)
	p.mu.Unlock()
	close(p.done)
	return nil
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, Stock: 10, IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func TestCheckout(t *testing.T) {
	db := newTestDB(t)
	cart := NewCartService(db)
	publisher := &capturingPublisher{done: make(chan struct{})}
	orders := NewOrderService(db, cart, publisher)

	quad := seedProduct(t, db, "Квадроцикл ATV-200", 139990)
	helmet := seedProduct(t, db, "Шлем", 4500)

	_, err := cart.AddItem("cart-session", quad.ID, 1)
	require.NoError(t, err)
	_, err = cart.AddItem("cart-session", helmet.ID, 2)
	require.NoError(t, err)

	order, err := orders.Checkout("cart-session", CheckoutInput{
		Name:  "Иван",
		Phone: "+7 900 000-00-00",
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, 139990+2*4500.0, order.Total)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Квадроцикл ATV-200", order.Items[0].Name)
	assert.Equal(t, 139990.0, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[1].Quantity)

	// Checkout clears the cart in the same transaction.
	remaining, err := cart.List("cart-session")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	<-publisher.done
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Equal(t, []uint{order.ID}, publisher.orders)
}

func TestCheckout_EmptyCart(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(db, NewCartService(db), nil)

	_, err := orders.Checkout("empty-session", CheckoutInput{Name: "Иван"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_PriceSnapshot(t *testing.T) {
	db := newTestDB(t)
	cart := NewCartService(db)
	orders := NewOrderService(db, cart, nil)

	product := seedProduct(t, db, "Шлем", 4500)
	_, err := cart.AddItem("snap-session", product.ID, 1)
	require.NoError(t, err)

	order, err := orders.Checkout("snap-session", CheckoutInput{Name: "Иван"})
	require.NoError(t, err)

	// A later price change must not rewrite order history.
	require.NoError(t, db.Model(product).Update("price", 9900).Error)

	got, err := orders.GetByID(order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 4500.0, got.Items[0].Price)
	assert.Equal(t, 4500.0, got.Total)
}

func TestUpdateOrderStatus(t *testing.T) {
	db := newTestDB(t)
	cart := NewCartService(db)
	orders := NewOrderService(db, cart, nil)

	product := seedProduct(t, db, "Шлем", 4500)
	_, err := cart.AddItem("status-session", product.ID, 1)
	require.NoError(t, err)
	order, err := orders.Checkout("status-session", CheckoutInput{Name: "Иван"})
	require.NoError(t, err)

	updated, err := orders.UpdateStatus(order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	_, err = orders.UpdateStatus(9999, models.OrderStatusDone)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCartAddItem_MergesQuantity(t *testing.T) {
	db := newTestDB(t)
	cart := NewCartService(db)

	product := seedProduct(t, db, "Шлем", 4500)

	first, err := cart.AddItem("merge-session", product.ID, 1)
	require.NoError(t, err)
	second, err := cart.AddItem("merge-session", product.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)

	items, err := cart.List("merge-session")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Шлем", items[0].Product.Name)
}

func TestCartAddItem_UnknownProduct(t *testing.T) {
	cart := NewCartService(newTestDB(t))

	_, err := cart.AddItem("bad-session", 12345, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
