package models

import "time"

// Booking is a reservation of an item window by a booker. Item and Booker are
// snapshots resolved by the store at read time.
type Booking struct {
	ID        int64     `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    Status    `json:"status"`
	Item      Item      `json:"item"`
	Booker    User      `json:"booker"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// IsOwnedBy reports whether userID owns the booked item.
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.Item.OwnerID == userID
}

// IsVisibleTo reports whether userID is the booker or the item owner.
func (b *Booking) IsVisibleTo(userID int64) bool {
	return b.Booker.ID == userID || b.IsOwnedBy(userID)
}
