package models

// Category enum
type Category string

const (
	CategoryGarbage           Category = "Garbage"
	CategoryRoadDefect        Category = "Road Defect"
	CategoryStreetlightOutage Category = "Streetlight Outage"
	CategoryWaterLeak         Category = "Water Leak"
	CategorySewageBlock       Category = "Sewage Block"
	CategoryPublicVandalism   Category = "Public Vandalism"
	CategoryOther             Category = "Other"
)

var categories = []Category{
	CategoryGarbage,
	CategoryRoadDefect,
	CategoryStreetlightOutage,
	CategoryWaterLeak,
	CategorySewageBlock,
	CategoryPublicVandalism,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

// Department identifies a municipal department. Workers and department
// officers belong to exactly one; citizens carry DepartmentNone.
type Department string

const (
	DepartmentGarbage           Department = "Garbage"
	DepartmentRoadDefect        Department = "Road Defect"
	DepartmentStreetlightOutage Department = "Streetlight Outage"
	DepartmentWaterLeak         Department = "Water Leak"
	DepartmentSewageBlock       Department = "Sewage Block"
	DepartmentPublicVandalism   Department = "Public Vandalism"
	DepartmentNone              Department = "None"
)

var departments = []Department{
	DepartmentGarbage,
	DepartmentRoadDefect,
	DepartmentStreetlightOutage,
	DepartmentWaterLeak,
	DepartmentSewageBlock,
	DepartmentPublicVandalism,
}

// Valid reports whether d names a real department. DepartmentNone is not one.
func (d Department) Valid() bool {
	for _, v := range departments {
		if v == d {
			return true
		}
	}
	return false
}

// Departments returns the assignable departments.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

// routingTable is the auto-routing configuration. Other has no entry and
// is left for manual triage.
var routingTable = map[Category]Department{
	CategoryGarbage:           DepartmentGarbage,
	CategoryRoadDefect:        DepartmentRoadDefect,
	CategoryStreetlightOutage: DepartmentStreetlightOutage,
	CategoryWaterLeak:         DepartmentWaterLeak,
	CategorySewageBlock:       DepartmentSewageBlock,
	CategoryPublicVandalism:   DepartmentPublicVandalism,
}

// RouteCategory returns the department responsible for a category, or false
// when the report needs manual triage.
func RouteCategory(category Category) (Department, bool) {
	dept, ok := routingTable[category]
	return dept, ok
}
