package models

import (
	"fmt"
	"strings"
	"time"
)

// DateTime is a wall-clock instant without zone, carried at second precision.
type DateTime struct {
	time.Time
}

// NewDateTime truncates t to whole seconds.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.Truncate(time.Second)}
}

// ParseDateTime reads the yyyy-MM-ddTHH:mm:ss form in the local zone.
// A trailing fractional second is accepted and dropped.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date-time %q, expected %s", s, "yyyy-MM-ddTHH:mm:ss")
	}
	return t.Truncate(time.Second), nil
}

// FormatDateTime renders t in the storage and wire layout.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(DateTimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + FormatDateTime(d.Time) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		d.Time = time.Time{}
		return nil
	}
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("date-time must be a string, got %s", raw)
	}
	t, err := ParseDateTime(raw[1 : len(raw)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Page is a zero-based offset/limit slice of an ordered result.
type Page struct {
	Offset int
	Limit  int
}

// BookingQuery drives the classification listings. Now is snapshotted once
// by the caller and used for every comparison in the query.
type BookingQuery struct {
	Scope  Scope
	UserID int64
	State  State
	Now    time.Time
	Page   Page
}

type UserView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CommentView struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName"`
	Created    DateTime `json:"created"`
}

type ItemView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	LastBooking *BookingInfo  `json:"lastBooking"`
	NextBooking *BookingInfo  `json:"nextBooking"`
	Comments    []CommentView `json:"comments"`
	RequestID   *int64        `json:"requestId"`
}

type BookingView struct {
	ID     int64    `json:"id"`
	Start  DateTime `json:"start"`
	End    DateTime `json:"end"`
	Status Status   `json:"status"`
	Booker UserView `json:"booker"`
	Item   ItemView `json:"item"`
}

// BookingInfo is the short form attached to an item's last/next fields.
type BookingInfo struct {
	ID       int64    `json:"id"`
	BookerID int64    `json:"bookerId"`
	Start    DateTime `json:"start"`
	End      DateTime `json:"end"`
}

func ToUserView(u User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func ToItemView(item Item) ItemView {
	return ItemView{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		Comments:    []CommentView{},
		RequestID:   item.RequestID,
	}
}

func ToBookingView(b *Booking) BookingView {
	return BookingView{
		ID:     b.ID,
		Start:  NewDateTime(b.Start),
		End:    NewDateTime(b.End),
		Status: b.Status,
		Booker: ToUserView(b.Booker),
		Item:   ToItemView(b.Item),
	}
}

func ToBookingViews(bookings []*Booking) []BookingView {
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, ToBookingView(b))
	}
	return views
}

func ToBookingInfo(b *Booking) *BookingInfo {
	if b == nil {
		return nil
	}
	return &BookingInfo{
		ID:       b.ID,
		BookerID: b.Booker.ID,
		Start:    NewDateTime(b.Start),
		End:      NewDateTime(b.End),
	}
}
