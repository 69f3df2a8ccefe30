package model

import "time"

// Deal statuses.
const (
	DealActive = "active"
	DealOnHold = "on_hold"
	DealClosed = "closed"
)

// Deal identifies a company under due diligence. Progress and the request
// counters are derived from the deal's requests.
type Deal struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CompanyName       string    `gorm:"not null" json:"company_name"`
	Title             string    `json:"title"`
	Industry          string    `json:"industry,omitempty"`
	Status            string    `gorm:"default:active" json:"status"`
	Progress          int       `gorm:"default:0" json:"progress"`
	TotalRequests     int       `gorm:"default:0" json:"total_requests"`
	CompletedRequests int       `gorm:"default:0" json:"completed_requests"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProgressPercent returns completed/total as a rounded percentage.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (completed*100 + total/2) / total
}
