package models

// AdminUser authenticates the order-management surface. This is deliberately
// not a customer account system; customers check out as guests.
type AdminUser struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
}
