package storage

import "time"

// Account is a registered user. Transactions and goals are scoped to it.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"uniqueIndex;not null" json:"phone"`
	Name      string    `gorm:"not null" json:"name"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is a client-originated financial event. Its id is generated on
// the device so records created offline keep their identity across syncs; the
// id is unique across the whole store, not per account. MpesaID ties the
// record to an M-Pesa confirmation and is unique whenever present.
type Transaction struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Date      time.Time `gorm:"not null" json:"date"`
	Category  string    `gorm:"not null" json:"category"`
	Note      string    `json:"note"`
	MpesaID   *string   `gorm:"column:mpesa_id;uniqueIndex" json:"mpesa_id"`
}

// Goal is a savings target, synced with the same upsert lifecycle as
// transactions.
type Goal struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	AccountID uint       `gorm:"not null;index" json:"user_id"`
	Name      string     `gorm:"not null" json:"name"`
	Target    int64      `gorm:"not null" json:"target"`
	Saved     int64      `gorm:"default:0" json:"saved"`
	IconCode  *int       `json:"icon_code"`
	ColorHex  *string    `json:"color_hex"`
	Deadline  *time.Time `json:"deadline"`
}
