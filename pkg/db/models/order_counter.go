package models

// OrderCounter backs the daily-sequential order number allocation.
// Day is formatted YYYYMMDD; Seq is incremented atomically per allocation.
type OrderCounter struct {
	Day string `gorm:"column:day;type:text;primaryKey"`
	Seq int    `gorm:"column:seq;not null;default:0"`
}
