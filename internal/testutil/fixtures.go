package testutil

// EnergyColumns are the upstream columns present in EnergyCSV
//
//nolint:gochecknoglobals // test fixture
var EnergyColumns = []string{
	"country",
	"year",
	"iso_code",
	"population",
	"gdp",
	"coal_electricity",
	"carbon_intensity_elec",
	"renewables_share_elec",
	"electricity_demand",
}

// EnergyCSV is a small upstream energy document. With active year 2022 and a range of
// five years, Germany 2016 is outside the window and Atlantis has no population.
const EnergyCSV = `country,year,iso_code,population,gdp,coal_electricity,carbon_intensity_elec,renewables_share_elec,electricity_demand,hydro_share_energy
Germany,2016,DEU,82000000,3500000000000,1.2345,400.6,30.123,550,3.1
Germany,2021,DEU,83000000,,1.5,350.4,40.5,560,3.2
Germany,2022,DEU,83200000,,1.25,385.2,44.01,550,3.3
France,2022,FRA,67900000,2900000000000,0.003,56.9,25,470,5.5
World,2022,OWID_WRL,7900000000,,10000.5,436,29.9,28000,6.1
Atlantis,2022,,,,,,,,
`

// CodebookCSV documents the EnergyCSV columns the way the upstream codebook does
const CodebookCSV = `column,description,unit,source
country,Geographic location.,,Our World in Data
year,Year of observation.,,Our World in Data
iso_code,ISO 3166-1 alpha-3 three-letter country codes.,,International Organization for Standardization
population,Population by country.,people,Calculated by Our World in Data
gdp,"Total real gross domestic product, inflation-adjusted.",international-$,Maddison Project Database
coal_electricity,Electricity generation from coal - Measured in terawatt-hours.,terawatt-hours,Calculated by Our World in Data based on Ember
carbon_intensity_elec,Carbon intensity of electricity generation.,grams of CO₂ equivalents per kilowatt-hour,Ember
renewables_share_elec,Share of electricity generation that comes from renewables - Measured as a percentage of total electricity produced in the country or region.,%,Calculated by Our World in Data based on Ember
electricity_demand,Electricity demand - Measured in terawatt-hours.,terawatt-hours,Calculated by Our World in Data based on Ember
hydro_share_energy,Share of primary energy consumption that comes from hydropower.,%,Calculated by Our World in Data
`
