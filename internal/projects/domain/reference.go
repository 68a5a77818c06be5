package domain

// Regions are the administrative regions offered in the admin dropdowns.
var Regions = []string{
	"National Capital Region",
	"Cordillera Administrative Region",
	"Region I",
	"Region II",
	"Region III",
	"Region IV-A",
	"Region IV-B",
	"Region V",
	"Region VI",
	"Region VII",
	"Region VIII",
	"Region IX",
	"Region X",
	"Region XI",
	"Region XII",
	"Caraga",
	"BARMM",
}

// Sectors are the infrastructure sectors offered in the admin dropdowns.
var Sectors = []string{
	"Road Infrastructure",
	"Bridge Infrastructure",
	"Flood Control and Drainage",
	"Public Buildings",
	"Water Resources and Irrigation",
	"Special Infrastructure Projects",
	"Disaster Response and Rehabilitation",
	"Local Infrastructure Support",
}
