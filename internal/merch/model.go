package merch

import "time"

// MerchType classifies an item.
type MerchType string

const (
	TypeClothing  MerchType = "CLOTHING"
	TypeAccessory MerchType = "ACCESSORY"
	TypeSticker   MerchType = "STICKER"
	TypeLanyard   MerchType = "LANYARD"
	TypeOthers    MerchType = "OTHERS"
)

// Merch is an item sold by the organization.
type Merch struct {
	ID          int64
	Name        string
	Description string
	Type        MerchType
	Price       float64
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
