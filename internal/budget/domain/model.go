// Package domain holds the budget reference tables and the aggregate shapes
// computed over projects.
package domain

// RegionBudget is the curated allocation for one region in one year.
type RegionBudget struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RegionName string  `gorm:"column:region_name;size:100;not null;uniqueIndex:uq_region_budgets_region_year" json:"region_name"`
	Year       int     `gorm:"column:year;not null;uniqueIndex:uq_region_budgets_region_year" json:"year"`
	Budget     float64 `gorm:"column:budget;not null;default:0" json:"budget"`
}

func (RegionBudget) TableName() string { return "region_budgets" }

// SectorBudget is the curated allocation for one sector in one year.
type SectorBudget struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	SectorName string  `gorm:"column:sector_name;size:100;not null;uniqueIndex:uq_sector_budgets_sector_year" json:"sector_name"`
	Year       int     `gorm:"column:year;not null;uniqueIndex:uq_sector_budgets_sector_year" json:"year"`
	Budget     float64 `gorm:"column:budget;not null;default:0" json:"budget"`
}

func (SectorBudget) TableName() string { return "sector_budgets" }

// AnnualBudget is the national total for one year.
type AnnualBudget struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Year        int     `gorm:"column:year;not null;uniqueIndex" json:"year"`
	TotalBudget float64 `gorm:"column:total_budget;not null;default:0" json:"total_budget"`
}

func (AnnualBudget) TableName() string { return "annual_budgets" }

// Totals summarises every project.
type Totals struct {
	Count     int64   `json:"count"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
}

// Bucket is one group of a project rollup.
type Bucket struct {
	Name      string  `gorm:"column:name" json:"name"`
	Projects  int64   `gorm:"column:projects" json:"projects"`
	Allocated float64 `gorm:"column:allocated" json:"allocated"`
	Spent     float64 `gorm:"column:spent" json:"spent"`
}

// StatusCount is the number of projects in one status.
type StatusCount struct {
	Status string `gorm:"column:status" json:"status"`
	Count  int64  `gorm:"column:count" json:"count"`
}

// Amount is one named reference figure.
type Amount struct {
	Name   string  `json:"name"`
	Budget float64 `json:"budget"`
}

// YearView is the reference figures for one effective year.
// FellBack is set when Effective differs from a non-zero Requested year,
// or when no year was requested at all.
type YearView struct {
	Requested int      `json:"requested"`
	Effective int      `json:"effective"`
	FellBack  bool     `json:"fell_back"`
	Available []int    `json:"available"`
	Regions   []Amount `json:"regions"`
	Sectors   []Amount `json:"sectors"`
	Annual    float64  `json:"annual_total"`
}
