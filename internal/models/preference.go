package models

import "time"

// AdminPreference is the persisted shell state of one dashboard user.
type AdminPreference struct {
	Subject   string    `db:"subject" json:"subject"`
	ActiveTab string    `db:"active_tab" json:"activeTab"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
