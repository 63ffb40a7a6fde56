package types

// ReceiptItem is one line of a cleaned (discount-netted) receipt.
type ReceiptItem struct {
	ItemID string `json:"itemId" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Price  string `json:"price" validate:"required"`
}

// Receipt is the payload accepted by the ingestion endpoint. TradeDatetime is
// ISO 8601.
type Receipt struct {
	MemberID      string        `json:"memberId" validate:"required"`
	ReceiptID     string        `json:"receiptId" validate:"required"`
	TradeDatetime string        `json:"tradeDatetime" validate:"required"`
	Items         []ReceiptItem `json:"items" validate:"required,min=1,dive"`
}

// Subscription records one member's purchase of an item; a price drop below
// the purchase price makes the member a notification candidate.
type Subscription struct {
	MemberID      string `json:"memberId"`
	ReceiptID     string `json:"receiptId"`
	ItemID        string `json:"itemId"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	TradeDatetime string `json:"tradeDatetime"`
}

// Notification is a subscription paired with the price that undercut it.
type Notification struct {
	Subscription
	NewPrice float64 `json:"newPrice"`
}
