package types

// ServiceDetails is the service-specific variant attached to an order.
// Exactly one of the pointers is set, matching the order's service type.
type ServiceDetails struct {
	Food    *FoodDetails    `json:"food,omitempty"`
	Laundry *LaundryDetails `json:"laundry,omitempty"`
	Xerox   *XeroxDetails   `json:"xerox,omitempty"`
}

// FoodDetails carries kitchen instructions for a food order.
type FoodDetails struct {
	Instructions string `json:"instructions,omitempty"`
	TableNumber  string `json:"table_number,omitempty"`
}

// LaundryDetails parametrizes a laundry service request.
type LaundryDetails struct {
	WeightGrams int      `json:"weight_grams,omitempty"`
	ItemCount   int      `json:"item_count,omitempty"`
	Services    []string `json:"services,omitempty"`
}

// XeroxDetails parametrizes a print/copy service request.
type XeroxDetails struct {
	Pages       int    `json:"pages"`
	Copies      int    `json:"copies"`
	Color       bool   `json:"color,omitempty"`
	DoubleSided bool   `json:"double_sided,omitempty"`
	Binding     string `json:"binding,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}
