package model

import "time"

// BrokerMessage is an entry in the broker messaging inbox.
type BrokerMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DealID    *uint     `gorm:"index" json:"deal_id,omitempty"`
	Sender    string    `gorm:"not null" json:"sender"`
	Subject   string    `json:"subject"`
	Body      string    `gorm:"not null" json:"body"`
	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
