package models

import "time"

// Course represents a sellable course. Price 0 marks a free course; free
// courses never require a payment gate.
type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"not null;default:0;check:price >= 0" json:"price"`
	DurationDays  int       `gorm:"default:365" json:"duration_days"`
	TotalLectures int       `gorm:"default:0" json:"total_lectures"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsFree reports whether the course requires no payment.
func (c Course) IsFree() bool {
	return c.Price == 0
}
