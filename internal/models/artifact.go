package models

import "github.com/shopspring/decimal"

// Artifact is a marketplace file uploaded by a member.
// The bytes live in the artifact file manager; this is the metadata row.
type Artifact struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Title       string          `json:"title"`
	FileName    string          `json:"fileName"`
	ContentType string          `json:"contentType"`
	Size        int64           `json:"size"`
	SHA256      string          `json:"sha256"`
	PriceSolar  decimal.Decimal `json:"priceSolar"`
	HasPreview  bool            `json:"hasPreview"`
	CreatedAt   int64           `json:"createdAt"`
}
