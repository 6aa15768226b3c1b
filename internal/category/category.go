package category

import (
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
)

// DefaultNames is the seed list inserted into an empty category store.
var DefaultNames = []string{
	"Office Supplies",
	"Travel",
	"Meals",
	"Software",
	"Utilities",
	"Marketing",
}

// Category is a label an expense is filed under. Names are unique by exact,
// case-sensitive match.
type Category struct {
	Name string `json:"name"`
}

func ToDataModel(c *Category) *categoryDatamodel.Category {
	return &categoryDatamodel.Category{Name: c.Name}
}

func FromDataModel(c *categoryDatamodel.Category) *Category {
	return &Category{Name: c.Name}
}

// Names flattens stored rows to the wire form, a list of names.
func Names(rows []*categoryDatamodel.Category) []string {
	names := make([]string, len(rows))
	for i, c := range rows {
		names[i] = c.Name
	}
	return names
}
