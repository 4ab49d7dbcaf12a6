// Package mocks holds testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/pkg/stripe"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type OrderService struct {
	mock.Mock
}

func (m *OrderService) CreateOrder(ctx context.Context, identity *models.Identity, cart service.CheckoutCart, delivery *models.DeliveryInfo) (*models.Order, error) {
	args := m.Called(ctx, identity, cart, delivery)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderService) CreatePaidOrder(ctx context.Context, identity *models.Identity, cart service.CheckoutCart) (*models.Order, error) {
	args := m.Called(ctx, identity, cart)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderService) GetOrder(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, identity, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderService) AdvanceStatus(ctx context.Context, identity *models.Identity, id uuid.UUID, current models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, identity, id, current)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderService) ConfirmDelivery(ctx context.Context, identity *models.Identity, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, identity, id)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *OrderService) ListOrdersForUser(ctx context.Context, identity *models.Identity, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, identity, userID, page, size)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Int(1), args.Error(2)
}

func (m *OrderService) ListAllOrders(ctx context.Context, identity *models.Identity, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, identity, page, size)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Int(1), args.Error(2)
}

type ProductService struct {
	mock.Mock
}

func (m *ProductService) CreateProduct(ctx context.Context, identity *models.Identity, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, identity, req)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ProductService) DeleteProduct(ctx context.Context, identity *models.Identity, id uuid.UUID) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

func (m *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]*models.Product)
	return products, args.Error(1)
}

type UserService struct {
	mock.Mock
}

func (m *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.LoginResponse)
	return resp, args.Error(1)
}

func (m *UserService) Logout(ctx context.Context, identity *models.Identity) {
	m.Called(ctx, identity)
}

func (m *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type PaymentService struct {
	mock.Mock
}

func (m *PaymentService) StartCheckout(ctx context.Context, identity *models.Identity, cart service.CheckoutCart) (*models.CheckoutSession, error) {
	args := m.Called(ctx, identity, cart)
	session, _ := args.Get(0).(*models.CheckoutSession)
	return session, args.Error(1)
}

func (m *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error) {
	args := m.Called(ctx, payload, signature)
	event, _ := args.Get(0).(stripe.Event)
	return event, args.Error(1)
}

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *NotificationService) NotifyOrderPlaced(ctx context.Context, order models.Order) {
	m.Called(ctx, order)
}

func (m *NotificationService) NotifyDeliveryConfirmed(ctx context.Context, order models.Order) {
	m.Called(ctx, order)
}
