package load

import (
	"github.com/LilVoxy/retail_etl/ETL/models"
)

// Rejected - кандидат в факты, не найденный в одном из измерений
type Rejected struct {
	Dimension string               `json:"dimension"`
	Candidate models.FactCandidate `json:"candidate"`
}

// ResolveKeys соединяет (inner join) кандидатов с перечитанными измерениями
// по натуральным ключам и проецирует оставшихся в строки фактов. Кандидат,
// отсутствующий в каком-либо измерении, отбрасывается и попадает в rejected
// с указанием первого измерения без совпадения.
func ResolveKeys(candidates []models.FactCandidate, keys *KeyMaps) (facts []models.SalesFact, rejected []Rejected, counts models.UnresolvedCounts) {
	facts = make([]models.SalesFact, 0, len(candidates))

	for _, c := range candidates {
		customerSK, ok := keys.Customers[c.CustomerID]
		if !ok {
			counts.Customer++
			rejected = append(rejected, Rejected{Dimension: "customer", Candidate: c})
			continue
		}
		productSK, ok := keys.Products[c.ProductID]
		if !ok {
			counts.Product++
			rejected = append(rejected, Rejected{Dimension: "product", Candidate: c})
			continue
		}
		locationSK, ok := keys.Locations[c.LocationID]
		if !ok {
			counts.Location++
			rejected = append(rejected, Rejected{Dimension: "location", Candidate: c})
			continue
		}
		timeSK, ok := keys.Dates[c.DateKey()]
		if !ok {
			counts.Time++
			rejected = append(rejected, Rejected{Dimension: "time", Candidate: c})
			continue
		}

		facts = append(facts, models.SalesFact{
			CustomerSK: customerSK,
			ProductSK:  productSK,
			LocationSK: locationSK,
			TimeSK:     timeSK,
			SaleID:     c.SaleID,
			Quantity:   c.Quantity,
			UnitPrice:  c.UnitPrice,
			TotalValue: c.TotalValue,
			UnitCost:   c.UnitCost,
		})
	}

	return facts, rejected, counts
}
