package model

// Category groups products and deductions by name. The name is the join key
// used by Product.CategoryName and Deduction.CategoryName (a string join, not
// a foreign key), so renaming a category does not rewrite either side.
type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required"`
}

// DefaultCategories seeds an empty catalog.
var DefaultCategories = []Category{
	{Name: "General"},
}
