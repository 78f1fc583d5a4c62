package models

// TransformedData содержит результат фазы Transform для загрузчика
type TransformedData struct {
	// Измерения
	Customers []CustomerDimension
	Products  []ProductDimension
	Locations []LocationDimension
	Dates     []TimeDimension

	// Факты, ожидающие сопоставления ключей
	Candidates []FactCandidate

	Report CleansingReport
}

// CleansingReport подводит итог исправленному и отброшенному в фазе Transform
type CleansingReport struct {
	RowsIn              int   `json:"rows_in"`
	RowsOut             int   `json:"rows_out"`
	DroppedInvalidDate  int   `json:"dropped_invalid_date"`
	MedianAge           int64 `json:"median_age"`
	AgeFallbackUsed     bool  `json:"age_fallback_used"`
	FilledAge           int   `json:"filled_age"`
	FilledGender        int   `json:"filled_gender"`
	FilledProductName   int   `json:"filled_product_name"`
	FilledUnitCost      int   `json:"filled_unit_cost"`
	ConflictingDimKeys  int   `json:"conflicting_dim_keys"`
	PartitionsProcessed int   `json:"partitions_processed"`
}

// Add добавляет счетчики партиции other в r.
// Поля всего набора (медиана, флаг запасного значения) не меняются.
func (r *CleansingReport) Add(other CleansingReport) {
	r.RowsIn += other.RowsIn
	r.RowsOut += other.RowsOut
	r.DroppedInvalidDate += other.DroppedInvalidDate
	r.FilledAge += other.FilledAge
	r.FilledGender += other.FilledGender
	r.FilledProductName += other.FilledProductName
	r.FilledUnitCost += other.FilledUnitCost
}

// LoadResult подводит итог фазы Load
type LoadResult struct {
	Customers  int              `json:"customers"`
	Products   int              `json:"products"`
	Locations  int              `json:"locations"`
	Dates      int              `json:"dates"`
	Facts      int              `json:"facts"`
	Unresolved UnresolvedCounts `json:"unresolved"`
}

// UnresolvedCounts считает кандидатов, отброшенных при сопоставлении ключей,
// по первому измерению без совпадения.
type UnresolvedCounts struct {
	Customer int `json:"customer"`
	Product  int `json:"product"`
	Location int `json:"location"`
	Time     int `json:"time"`
}

// Total возвращает число отброшенных кандидатов
func (u UnresolvedCounts) Total() int {
	return u.Customer + u.Product + u.Location + u.Time
}

// Add добавляет other к u
func (u *UnresolvedCounts) Add(other UnresolvedCounts) {
	u.Customer += other.Customer
	u.Product += other.Product
	u.Location += other.Location
	u.Time += other.Time
}
