package models

import "time"

// роли пользователей, проверяются явным образом в привилегированных операциях
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User представляет пользователя магазина
type User struct {
	ID        int64
	Email     string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}
