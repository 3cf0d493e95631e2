package models

import "time"

// User представляет зарегистрированного пользователя магазина
type User struct {
	ID         int64
	Username   string // уникальное имя (хранится в нижнем регистре)
	Email      string // уникальный email (хранится в нижнем регистре)
	PassHash   []byte
	IsVerified bool // подтверждён ли email
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
