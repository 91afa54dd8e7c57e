package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/ecom-shop/internal/domain/models"
	"github.com/linemk/ecom-shop/internal/payment"
	"github.com/linemk/ecom-shop/internal/service"
	"github.com/linemk/ecom-shop/internal/storage"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[string]*models.User // ключ — email
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

type fakeOTPRepo struct {
	codes    map[string]string
	payloads map[string][]byte
}

var _ storage.OTPStorage = (*fakeOTPRepo)(nil)

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{codes: make(map[string]string), payloads: make(map[string][]byte)}
}

func (f *fakeOTPRepo) Save(ctx context.Context, email, code string, payload []byte, ttl time.Duration) error {
	f.codes[email] = code
	f.payloads[email] = payload
	return nil
}

func (f *fakeOTPRepo) Get(ctx context.Context, email string) (string, []byte, error) {
	code, ok := f.codes[email]
	if !ok {
		return "", nil, storage.ErrOTPNotFound
	}
	return code, f.payloads[email], nil
}

func (f *fakeOTPRepo) Delete(ctx context.Context, email string) error {
	delete(f.codes, email)
	delete(f.payloads, email)
	return nil
}

type fakeMailSender struct {
	sent []string // адреса получателей
}

func (f *fakeMailSender) Send(ctx context.Context, to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fakeAddressRepo struct {
	addresses map[int64]*models.Address
}

var _ storage.AddressStorage = (*fakeAddressRepo)(nil)

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{addresses: make(map[int64]*models.Address)}
}

func (f *fakeAddressRepo) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Address, error) {
	addr, ok := f.addresses[id]
	if !ok || addr.UserID != userID {
		return nil, storage.ErrAddressNotFound
	}
	return addr, nil
}

func (f *fakeAddressRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Address, error) {
	var out []*models.Address
	for _, a := range f.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAddressRepo) Create(ctx context.Context, addr *models.Address) (*models.Address, error) {
	addr.ID = int64(len(f.addresses) + 1)
	f.addresses[addr.ID] = addr
	return addr, nil
}

func (f *fakeAddressRepo) Delete(ctx context.Context, id, userID int64) error {
	addr, ok := f.addresses[id]
	if !ok || addr.UserID != userID {
		return storage.ErrAddressNotFound
	}
	delete(f.addresses, id)
	return nil
}

type fakeCartRepo struct {
	lines   map[int64][]*storage.CheckoutLine // ключ: userID
	cleared bool
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{lines: make(map[int64][]*storage.CheckoutLine)}
}

func (f *fakeCartRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	return []*models.CartItem{}, nil
}

func (f *fakeCartRepo) Upsert(ctx context.Context, item *models.CartItem) error { return nil }

func (f *fakeCartRepo) UpdateQuantity(ctx context.Context, userID, productID, variantID int64, quantity int) error {
	return nil
}

func (f *fakeCartRepo) Remove(ctx context.Context, userID, productID, variantID int64) error {
	return nil
}

func (f *fakeCartRepo) GetForCheckoutTx(ctx context.Context, tx *sql.Tx, userID int64) ([]*storage.CheckoutLine, error) {
	return f.lines[userID], nil
}

func (f *fakeCartRepo) ClearTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	f.lines[userID] = nil
	f.cleared = true
	return nil
}

type fakeOrderRepo struct {
	orders  map[int64]*models.Order
	created []*models.Order
	nextID  int64
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order), nextID: 1}
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	id := f.nextID
	f.nextID++
	f.orders[id] = order
	f.created = append(f.created, order)
	return id, nil
}

func (f *fakeOrderRepo) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok || order.UserID != userID {
		return nil, storage.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	n := 0
	for _, o := range f.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderRepo) LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeOrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status, trackingID, adminNote string) error {
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.OrderStatus = status
	return nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*models.Product)}
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	var out []*models.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.ID = int64(len(f.products) + 1)
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) LockProductTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeProductRepo) UpdateVariantTx(ctx context.Context, tx *sql.Tx, v *models.Variant) error {
	return nil
}

func (f *fakeProductRepo) UpdateDerivedTx(ctx context.Context, tx *sql.Tx, p *models.Product) error {
	return nil
}

type fakeCouponRepo struct {
	coupons map[string]*models.Coupon
}

var _ storage.CouponStorage = (*fakeCouponRepo)(nil)

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: make(map[string]*models.Coupon)}
}

func (f *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, storage.ErrCouponNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error) {
	if _, ok := f.coupons[c.Code]; ok {
		return nil, storage.ErrDuplicateCoupon
	}
	c.ID = int64(len(f.coupons) + 1)
	f.coupons[c.Code] = c
	return c, nil
}

func (f *fakeCouponRepo) List(ctx context.Context) ([]*models.Coupon, error) {
	var out []*models.Coupon
	for _, c := range f.coupons {
		out = append(out, c)
	}
	return out, nil
}

const testGatewaySecret = "gw-test-secret"

func testSecret() string { return testGatewaySecret }

func newOrderServiceForTest(t *testing.T) (service.OrderService, sqlmock.Sqlmock, *fakeCartRepo, *fakeOrderRepo, *fakeAddressRepo, *fakeCouponRepo, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	cartRepo := newFakeCartRepo()
	orderRepo := newFakeOrderRepo()
	addressRepo := newFakeAddressRepo()
	productRepo := newFakeProductRepo()
	couponRepo := newFakeCouponRepo()

	addressRepo.addresses[1] = &models.Address{ID: 1, UserID: 1, FullName: "Test User", City: "Mumbai"}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderService(logger, db, cartRepo, orderRepo, addressRepo, productRepo, couponRepo, testSecret)
	return svc, mock, cartRepo, orderRepo, addressRepo, couponRepo, func() { db.Close() }
}

func TestOrderService_Checkout_CODSuccess(t *testing.T) {
	svc, mock, cartRepo, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	// одна позиция: 450 без скидки, обычная доставка ниже порога
	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 1, UnitPrice: 450},
	}

	details, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "COD",
		DeliveryType:      models.DeliveryNormal,
	})
	assert.NoError(t, err, "COD checkout should succeed without payment proof")

	order := details.Order
	assert.Equal(t, models.OrderPlaced, order.OrderStatus)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus, "COD orders start with pending payment")
	assert.Equal(t, 450.0, order.SubTotal)
	assert.Equal(t, 40.0, order.ShippingCharges)
	assert.Equal(t, 490.0, order.TotalAmount)
	assert.Equal(t, 7, order.EstimatedDays)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-[0-9A-Z]{9}$`), order.InvoiceID)

	assert.True(t, cartRepo.cleared, "cart should be cleared after checkout")
	assert.Len(t, orderRepo.created, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_MultiItemNormal(t *testing.T) {
	svc, mock, cartRepo, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	// две позиции: 2×100 + 1×250 = 450, обычная доставка ниже порога 500
	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 2, UnitPrice: 100},
		{ProductID: 2, VariantID: 2, ProductName: "cap", Quantity: 1, UnitPrice: 250},
	}

	details, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "COD",
		DeliveryType:      models.DeliveryNormal,
	})
	assert.NoError(t, err)

	order := details.Order
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 200.0, order.Items[0].LineTotal)
	assert.Equal(t, 250.0, order.Items[1].LineTotal)
	assert.Equal(t, 450.0, order.SubTotal, "subtotal must aggregate all cart lines")
	assert.Equal(t, 40.0, order.ShippingCharges)
	assert.Equal(t, 490.0, order.TotalAmount)
	assert.Equal(t, 7, order.EstimatedDays)

	assert.Len(t, orderRepo.created, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_MultiItemExpress(t *testing.T) {
	svc, mock, cartRepo, _, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 2, UnitPrice: 100},
		{ProductID: 2, VariantID: 2, ProductName: "cap", Quantity: 1, UnitPrice: 250},
	}

	details, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "COD",
		DeliveryType:      models.DeliveryExpress,
	})
	assert.NoError(t, err)

	// экспресс-доставка стоит 99 независимо от суммы
	order := details.Order
	assert.Equal(t, 450.0, order.SubTotal)
	assert.Equal(t, 99.0, order.ShippingCharges)
	assert.Equal(t, 549.0, order.TotalAmount)
	assert.Equal(t, 2, order.EstimatedDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	svc, mock, _, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "COD",
		DeliveryType:      models.DeliveryNormal,
	})
	assert.ErrorIs(t, err, service.ErrEmptyCart)
	assert.Empty(t, orderRepo.created, "no order should be created for an empty cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_ValidSignature(t *testing.T) {
	svc, mock, cartRepo, _, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 2, UnitPrice: 100, DiscountPercent: 10},
	}

	sig := payment.Signature("order_abc", "pay_abc", testGatewaySecret)
	details, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "CARD",
		DeliveryType:      models.DeliveryExpress,
		Proof: &service.PaymentProof{
			GatewayOrderID:   "order_abc",
			GatewayPaymentID: "pay_abc",
			Signature:        sig,
		},
	})
	assert.NoError(t, err)

	order := details.Order
	// 2 × (100 со скидкой 10%) = 180, экспресс 99
	assert.Equal(t, 180.0, order.SubTotal)
	assert.Equal(t, 99.0, order.ShippingCharges)
	assert.Equal(t, 279.0, order.TotalAmount)
	assert.Equal(t, models.PaymentSuccess, order.PaymentStatus, "non-COD orders start with successful payment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_TamperedSignature(t *testing.T) {
	svc, mock, cartRepo, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 1, UnitPrice: 450},
	}

	sig := payment.Signature("order_abc", "pay_abc", testGatewaySecret)
	_, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "CARD",
		DeliveryType:      models.DeliveryNormal,
		Proof: &service.PaymentProof{
			GatewayOrderID:   "order_abc",
			GatewayPaymentID: "pay_other", // подпись не от этой пары
			Signature:        sig,
		},
	})
	assert.ErrorIs(t, err, service.ErrInvalidSignature)
	assert.Empty(t, orderRepo.created, "no order should be created on signature mismatch")
	assert.False(t, cartRepo.cleared, "cart must stay intact on signature mismatch")
	assert.NotEmpty(t, cartRepo.lines[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_MissingProof(t *testing.T) {
	svc, mock, cartRepo, _, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 1, UnitPrice: 450},
	}

	_, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "UPI",
		DeliveryType:      models.DeliveryNormal,
	})
	assert.ErrorIs(t, err, service.ErrMissingPaymentFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_CouponApplied(t *testing.T) {
	svc, mock, cartRepo, _, _, couponRepo, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "jacket", Quantity: 1, UnitPrice: 1000},
	}
	couponRepo.coupons["SAVE10"] = &models.Coupon{
		Code:            "SAVE10",
		DiscountPercent: 10,
		MinOrderAmount:  500,
		ExpiresAt:       time.Now().Add(24 * time.Hour),
		IsActive:        true,
	}

	details, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "COD",
		DeliveryType:      models.DeliveryNormal,
		CouponCode:        "SAVE10",
	})
	assert.NoError(t, err)

	order := details.Order
	assert.Equal(t, 1000.0, order.SubTotal)
	assert.Equal(t, 100.0, order.DiscountAmount)
	assert.Equal(t, 0.0, order.ShippingCharges, "free shipping above the threshold")
	assert.Equal(t, 900.0, order.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Checkout_ExpiredCoupon(t *testing.T) {
	svc, mock, cartRepo, orderRepo, _, couponRepo, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "jacket", Quantity: 1, UnitPrice: 1000},
	}
	couponRepo.coupons["OLD"] = &models.Coupon{
		Code:            "OLD",
		DiscountPercent: 10,
		ExpiresAt:       time.Now().Add(-time.Hour),
		IsActive:        true,
	}

	_, err := svc.Checkout(context.Background(), 1, service.CheckoutInput{
		ShippingAddressID: 1,
		PaymentMethod:     "COD",
		DeliveryType:      models.DeliveryNormal,
		CouponCode:        "OLD",
	})
	assert.ErrorIs(t, err, service.ErrCouponNotApplicable)
	assert.Empty(t, orderRepo.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_CheckoutDirect_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	cartRepo := newFakeCartRepo()
	orderRepo := newFakeOrderRepo()
	addressRepo := newFakeAddressRepo()
	productRepo := newFakeProductRepo()
	couponRepo := newFakeCouponRepo()

	addressRepo.addresses[1] = &models.Address{ID: 1, UserID: 1}
	productRepo.products[5] = &models.Product{
		ID: 5, Name: "sneakers", Price: 300, DiscountPercent: 0,
		Variants: []models.Variant{{ID: 7, ProductID: 5, SKU: "SNK-7", Price: 300, Stock: 10, IsDefault: true}},
	}
	// позиция остаётся в корзине и не должна быть затронута
	cartRepo.lines[1] = []*storage.CheckoutLine{
		{ProductID: 1, VariantID: 1, ProductName: "t-shirt", Quantity: 1, UnitPrice: 450},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderService(logger, db, cartRepo, orderRepo, addressRepo, productRepo, couponRepo, testSecret)

	details, err := svc.CheckoutDirect(context.Background(), 1, service.DirectCheckoutInput{
		CheckoutInput: service.CheckoutInput{
			ShippingAddressID: 1,
			PaymentMethod:     "COD",
			DeliveryType:      models.DeliveryNormal,
		},
		ProductID: 5,
		Quantity:  2,
	})
	assert.NoError(t, err)

	order := details.Order
	assert.Equal(t, 600.0, order.SubTotal)
	assert.Equal(t, 0.0, order.ShippingCharges)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, int64(7), order.Items[0].VariantID, "default variant should be resolved")

	assert.False(t, cartRepo.cleared, "direct checkout must not touch the cart")
	assert.NotEmpty(t, cartRepo.lines[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_CheckoutDirect_InsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	cartRepo := newFakeCartRepo()
	orderRepo := newFakeOrderRepo()
	addressRepo := newFakeAddressRepo()
	productRepo := newFakeProductRepo()
	couponRepo := newFakeCouponRepo()

	addressRepo.addresses[1] = &models.Address{ID: 1, UserID: 1}
	productRepo.products[5] = &models.Product{
		ID: 5, Name: "sneakers", Price: 300,
		Variants: []models.Variant{{ID: 7, ProductID: 5, SKU: "SNK-7", Price: 300, Stock: 1, IsDefault: true}},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderService(logger, db, cartRepo, orderRepo, addressRepo, productRepo, couponRepo, testSecret)

	_, err = svc.CheckoutDirect(context.Background(), 1, service.DirectCheckoutInput{
		CheckoutInput: service.CheckoutInput{
			ShippingAddressID: 1,
			PaymentMethod:     "COD",
			DeliveryType:      models.DeliveryNormal,
		},
		ProductID: 5,
		Quantity:  2,
	})
	assert.ErrorIs(t, err, service.ErrInsufficientStock, "quantity above variant stock must be rejected")
	assert.Empty(t, orderRepo.created, "no order should be created when stock is insufficient")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Cancel_FromPlaced(t *testing.T) {
	svc, mock, _, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	orderRepo.orders[10] = &models.Order{ID: 10, UserID: 1, OrderStatus: models.OrderPlaced}

	order, err := svc.Cancel(context.Background(), 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderCanceled, order.OrderStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Cancel_FromDelivered(t *testing.T) {
	svc, mock, _, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	orderRepo.orders[10] = &models.Order{ID: 10, UserID: 1, OrderStatus: models.OrderDelivered}

	_, err := svc.Cancel(context.Background(), 1, 10)
	assert.ErrorIs(t, err, service.ErrIllegalTransition)
	assert.Equal(t, models.OrderDelivered, orderRepo.orders[10].OrderStatus, "status must not change")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_Cancel_NotOwner(t *testing.T) {
	svc, mock, _, orderRepo, _, _, closeDB := newOrderServiceForTest(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	orderRepo.orders[10] = &models.Order{ID: 10, UserID: 2, OrderStatus: models.OrderPlaced}

	_, err := svc.Cancel(context.Background(), 1, 10)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound, "foreign order must look like a missing one")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderAdminService_UpdateOrderStatus_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	orderRepo := newFakeOrderRepo()
	orderRepo.orders[10] = &models.Order{ID: 10, UserID: 1, OrderStatus: models.OrderPlaced}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderAdminService(logger, db, orderRepo)

	order, err := svc.UpdateOrderStatus(context.Background(), models.RoleAdmin, 10, service.StatusUpdate{
		Status:     models.OrderShipped,
		TrackingID: "TRK-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.OrderShipped, order.OrderStatus)
	assert.Equal(t, "TRK-1", order.TrackingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderAdminService_UpdateOrderStatus_NotAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	orderRepo := newFakeOrderRepo()
	orderRepo.orders[10] = &models.Order{ID: 10, UserID: 1, OrderStatus: models.OrderPlaced}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderAdminService(logger, db, orderRepo)

	_, err = svc.UpdateOrderStatus(context.Background(), models.RoleCustomer, 10, service.StatusUpdate{
		Status: models.OrderShipped,
	})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, models.OrderPlaced, orderRepo.orders[10].OrderStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderAdminService_UpdateOrderStatus_IllegalTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	orderRepo := newFakeOrderRepo()
	orderRepo.orders[10] = &models.Order{ID: 10, UserID: 1, OrderStatus: models.OrderDelivered}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewOrderAdminService(logger, db, orderRepo)

	_, err = svc.UpdateOrderStatus(context.Background(), models.RoleAdmin, 10, service.StatusUpdate{
		Status: models.OrderShipped,
	})
	assert.ErrorIs(t, err, service.ErrIllegalTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartService_AddItem_RepricesAndResolvesDefaultVariant(t *testing.T) {
	productRepo := newFakeProductRepo()
	productRepo.products[1] = &models.Product{
		ID: 1, Name: "t-shirt", Price: 100, DiscountPercent: 10,
		Variants: []models.Variant{{ID: 3, ProductID: 1, SKU: "TS-3", Price: 100, Stock: 5, IsDefault: true}},
	}

	cartRepo := newFakeCartRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCartService(logger, cartRepo, productRepo)

	_, err := svc.AddItem(context.Background(), 1, 1, 0, 2)
	assert.NoError(t, err, "variant should be resolved to the default one")
}

func TestCartService_AddItem_InsufficientStock(t *testing.T) {
	productRepo := newFakeProductRepo()
	productRepo.products[1] = &models.Product{
		ID: 1, Name: "t-shirt", Price: 100,
		Variants: []models.Variant{{ID: 3, ProductID: 1, SKU: "TS-3", Price: 100, Stock: 1, IsDefault: true}},
	}

	cartRepo := newFakeCartRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCartService(logger, cartRepo, productRepo)

	_, err := svc.AddItem(context.Background(), 1, 1, 0, 5)
	assert.ErrorIs(t, err, service.ErrInsufficientStock)
}

func TestCartService_AddItem_UnknownVariant(t *testing.T) {
	productRepo := newFakeProductRepo()
	productRepo.products[1] = &models.Product{
		ID: 1, Name: "t-shirt", Price: 100,
		Variants: []models.Variant{{ID: 3, ProductID: 1, SKU: "TS-3", Price: 100, Stock: 5, IsDefault: true}},
	}

	cartRepo := newFakeCartRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCartService(logger, cartRepo, productRepo)

	_, err := svc.AddItem(context.Background(), 1, 1, 999, 1)
	assert.ErrorIs(t, err, storage.ErrVariantNotFound)
}

func TestAuthService_RegisterVerifyLogin(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	mail := &fakeMailSender{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	authSvc := service.NewAuthService(logger, userRepo, otpRepo, mail, 60*time.Minute, 10*time.Minute)
	ctx := context.Background()

	email := "newuser@example.com"
	password := "password123"

	err := authSvc.Register(ctx, email, password)
	assert.NoError(t, err, "Register should succeed for a new user")
	assert.Len(t, mail.sent, 1, "verification code should be mailed")

	// до подтверждения кода пользователя нет
	_, err = userRepo.GetUserByEmail(ctx, email)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	code := otpRepo.codes[email]
	assert.Len(t, code, 6)

	token, err := authSvc.VerifyOTP(ctx, email, code)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	user, err := userRepo.GetUserByEmail(ctx, email)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, password, string(user.PassHash), "Password should be hashed")

	token, err = authSvc.Login(ctx, email, password)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthService_VerifyOTP_WrongCode(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	mail := &fakeMailSender{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	authSvc := service.NewAuthService(logger, userRepo, otpRepo, mail, 60*time.Minute, 10*time.Minute)
	ctx := context.Background()

	email := "user@example.com"
	assert.NoError(t, authSvc.Register(ctx, email, "password123"))

	_, err := authSvc.VerifyOTP(ctx, email, "000000")
	if otpRepo.codes[email] == "000000" {
		t.Skip("generated code collided with the guess")
	}
	assert.ErrorIs(t, err, service.ErrInvalidOTP)

	_, err = userRepo.GetUserByEmail(ctx, email)
	assert.ErrorIs(t, err, storage.ErrUserNotFound, "user must not be created on a wrong code")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	os.Setenv("JWT_SECRET", "testsecret")
	defer os.Unsetenv("JWT_SECRET")

	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	authSvc := service.NewAuthService(logger, userRepo, otpRepo, &fakeMailSender{}, 60*time.Minute, 10*time.Minute)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	_, err = userRepo.CreateUser(ctx, &models.User{Email: "user@example.com", PassHash: hashed, Role: models.RoleCustomer})
	assert.NoError(t, err)

	token, err := authSvc.Login(ctx, "user@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewPaymentService(logger, nil, testSecret)

	// неполные данные отличаются от неверной подписи
	err := svc.VerifyPayment(service.PaymentProof{GatewayOrderID: "order_1"})
	assert.ErrorIs(t, err, service.ErrMissingPaymentFields)

	sig := payment.Signature("order_1", "pay_1", testGatewaySecret)
	err = svc.VerifyPayment(service.PaymentProof{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: sig})
	assert.NoError(t, err)

	err = svc.VerifyPayment(service.PaymentProof{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "bad"})
	assert.ErrorIs(t, err, service.ErrInvalidSignature)
}

type fakeCategoryRepo struct {
	categories map[int64]*models.Category
	nextID     int64
}

var _ storage.CategoryStorage = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[int64]*models.Category), nextID: 1}
}

func (f *fakeCategoryRepo) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	for _, existing := range f.categories {
		if existing.Slug == c.Slug {
			return nil, storage.ErrDuplicateCategory
		}
	}
	c.ID = f.nextID
	f.nextID++
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, storage.ErrCategoryNotFound
	}
	return c, nil
}

func (f *fakeCategoryRepo) List(ctx context.Context) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func TestCategoryService_Create_Success(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCategoryService(logger, categoryRepo)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, models.RoleAdmin, &models.Category{Name: "Shoes", Slug: "shoes"})
	assert.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.GetCategory(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "shoes", got.Slug)
}

func TestCategoryService_Create_NotAdmin(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCategoryService(logger, categoryRepo)

	_, err := svc.CreateCategory(context.Background(), models.RoleCustomer, &models.Category{Name: "Shoes", Slug: "shoes"})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Empty(t, categoryRepo.categories)
}

func TestCategoryService_Create_DuplicateSlug(t *testing.T) {
	categoryRepo := newFakeCategoryRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCategoryService(logger, categoryRepo)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, models.RoleAdmin, &models.Category{Name: "Shoes", Slug: "shoes"})
	assert.NoError(t, err)
	_, err = svc.CreateCategory(ctx, models.RoleAdmin, &models.Category{Name: "Shoes again", Slug: "shoes"})
	assert.ErrorIs(t, err, storage.ErrDuplicateCategory)
}

func TestCouponService_Create_Success(t *testing.T) {
	couponRepo := newFakeCouponRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCouponService(logger, couponRepo)

	created, err := svc.CreateCoupon(context.Background(), models.RoleAdmin, &models.Coupon{
		Code:            "SAVE10",
		DiscountPercent: 10,
		MinOrderAmount:  500,
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	})
	assert.NoError(t, err)
	assert.True(t, created.IsActive, "new coupons start active")
	assert.NotZero(t, created.ID)
}

func TestCouponService_Create_NotAdmin(t *testing.T) {
	couponRepo := newFakeCouponRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCouponService(logger, couponRepo)

	_, err := svc.CreateCoupon(context.Background(), models.RoleCustomer, &models.Coupon{
		Code:            "SAVE10",
		DiscountPercent: 10,
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Empty(t, couponRepo.coupons)
}

func TestCouponService_Create_AlreadyExpired(t *testing.T) {
	couponRepo := newFakeCouponRepo()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewCouponService(logger, couponRepo)

	_, err := svc.CreateCoupon(context.Background(), models.RoleAdmin, &models.Coupon{
		Code:            "OLD",
		DiscountPercent: 10,
		ExpiresAt:       time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, service.ErrCouponNotApplicable)
	assert.Empty(t, couponRepo.coupons)
}
