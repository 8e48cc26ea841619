package entity

import "time"

// Profile is a row of the `profiles` table: one platform user of this product.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Email     *string   `db:"email" json:"email"`
	FullName  *string   `db:"full_name" json:"full_name"`
	Plan      string    `db:"plan" json:"plan"`
	Tier      string    `db:"tier" json:"tier"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoleAdmin marks a user allowed into the admin control surface.
const RoleAdmin = "admin"
