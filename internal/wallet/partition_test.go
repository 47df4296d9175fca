package wallet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartitionFor(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "mid month", at: time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC), want: "transactions_2026_08"},
		{name: "first instant of month", at: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), want: "transactions_2026_01"},
		{name: "last instant of month", at: time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), want: "transactions_2025_12"},
		{name: "double digit month", at: time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC), want: "transactions_2026_11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartitionFor("transactions", tt.at))
		})
	}
}

func TestPartitionsBetween(t *testing.T) {
	from := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	got := PartitionsBetween("transactions", from, to)
	want := []string{
		"transactions_2026_02",
		"transactions_2026_01",
		"transactions_2025_12",
		"transactions_2025_11",
	}
	assert.Equal(t, want, got)
}

func TestPartitionsBetweenSingleMonth(t *testing.T) {
	at := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	got := PartitionsBetween("transactions", at, at.AddDate(0, 0, 10))
	assert.Equal(t, []string{"transactions_2026_08"}, got)
}

func TestPartitionsBetweenInvertedRange(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, -2, 0)
	assert.Nil(t, PartitionsBetween("transactions", from, to))
}
