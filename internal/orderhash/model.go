package orderhash

import "time"

// Record binds a Saleor order to the hash minted for it. Rows are immutable
// after insert; only the duplicate-cleanup repair path deletes them.
type Record struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID      string    `gorm:"column:order_id;not null;uniqueIndex:idx_order_hashes_order_id" json:"order_id"`
	OrderHash    string    `gorm:"column:order_hash;not null;uniqueIndex:idx_order_hashes_order_hash" json:"order_hash"`
	SaleorAPIURL string    `gorm:"column:saleor_api_url;not null;default:''" json:"saleor_api_url"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Record) TableName() string {
	return "order_hashes"
}

// DuplicateGroup reports a value bound to more than one row.
type DuplicateGroup struct {
	Value string `gorm:"column:value" json:"value"`
	Count int64  `gorm:"column:count" json:"count"`
}
