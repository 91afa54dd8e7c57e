package service

import "errors"

// Типизированные ошибки бизнес-логики. Обработчики транспортного слоя
// отображают их в коды статусов через errors.Is; всё остальное считается
// ошибкой хранилища и отдаётся наружу как общая ошибка сервера.
var (
	// ErrEmptyCart — корзина пуста или не существует
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingPaymentFields — не переданы все три поля подтверждения платежа;
	// отличается от неверной подписи, чтобы повтор запроса имел смысл
	ErrMissingPaymentFields = errors.New("payment verification details are required")
	// ErrInvalidSignature — проверка подписи платежа не прошла; сообщение
	// намеренно общее и не раскрывает, какое из полей не совпало
	ErrInvalidSignature = errors.New("payment verification failed")
	// ErrIllegalTransition — смена статуса заказа из текущего состояния запрещена
	ErrIllegalTransition = errors.New("order status transition is not allowed")
	// ErrUnauthorized — операция требует роли, которой у пользователя нет
	ErrUnauthorized = errors.New("operation is not permitted")
	// ErrInvalidCredentials — неверная пара логин/пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP — код подтверждения не совпал или истёк
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrInsufficientStock — запрошенное количество превышает остаток
	ErrInsufficientStock = errors.New("not enough stock available")
	// ErrCouponNotApplicable — купон не существует, истёк или не достигнут
	// минимальный размер заказа
	ErrCouponNotApplicable = errors.New("coupon is not applicable")
	// ErrQuantityTooSmall — количество в позиции должно быть не меньше единицы
	ErrQuantityTooSmall = errors.New("quantity must be at least 1")
)
