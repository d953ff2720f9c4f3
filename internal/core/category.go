package core

// Category is one of the fixed expense labels.
type Category string

const (
	FoodAndDining  Category = "Food & Dining"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Utilities      Category = "Utilities"
	Shopping       Category = "Shopping"
	Healthcare     Category = "Healthcare"
	Travel         Category = "Travel"
	Education      Category = "Education"
	PersonalCare   Category = "Personal Care"
	Other          Category = "Other"
)

var categories = []Category{
	FoodAndDining,
	Transportation,
	Entertainment,
	Utilities,
	Shopping,
	Healthcare,
	Travel,
	Education,
	PersonalCare,
	Other,
}

// Categories returns the labels in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory accepts only an exact label.
func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c Category) String() string {
	return string(c)
}
