package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/money"
)

type Category string

const (
	CategoryKitchen      Category = "KITCHEN"
	CategoryElectronics  Category = "ELECTRONICS"
	CategoryHome         Category = "HOME"
	CategoryCleaning     Category = "CLEANING"
	CategoryFood         Category = "FOOD"
	CategoryBeverages    Category = "BEVERAGES"
	CategoryPersonalCare Category = "PERSONAL_CARE"
	CategoryPets         Category = "PETS"
	CategoryTools        Category = "TOOLS"
	CategoryOffice       Category = "OFFICE"
	CategoryToys         Category = "TOYS"
	CategoryClothing     Category = "CLOTHING"
	CategoryOther        Category = "OTHER"
)

var knownCategories = map[Category]struct{}{
	CategoryKitchen:      {},
	CategoryElectronics:  {},
	CategoryHome:         {},
	CategoryCleaning:     {},
	CategoryFood:         {},
	CategoryBeverages:    {},
	CategoryPersonalCare: {},
	CategoryPets:         {},
	CategoryTools:        {},
	CategoryOffice:       {},
	CategoryToys:         {},
	CategoryClothing:     {},
	CategoryOther:        {},
}

func (c Category) Valid() bool {
	_, ok := knownCategories[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

type Product struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Category   Category    `json:"category" db:"category"`
	PriceCents money.Cents `json:"price_cents" db:"price_cents"`
	Active     bool        `json:"active" db:"active"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// Filter narrows ListProducts. Nil fields are ignored.
type Filter struct {
	Category      *Category
	Active        *bool
	MinPriceCents *money.Cents
	MaxPriceCents *money.Cents
}

// Matches is used by stores that filter in memory.
func (f Filter) Matches(p Product) bool {
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.Active != nil && p.Active != *f.Active {
		return false
	}
	if f.MinPriceCents != nil && p.PriceCents < *f.MinPriceCents {
		return false
	}
	if f.MaxPriceCents != nil && p.PriceCents > *f.MaxPriceCents {
		return false
	}
	return true
}
