package models

import "time"

// Category представляет раздел каталога; товар ссылается на раздел
// через CategoryID.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
