package model

// Fuel level steps, eighth-tank resolution. "reserve" and "low" are legacy
// synonyms kept verbatim on old records; they are accepted on input too.
const (
	FuelEmpty         = "empty"
	FuelOneEighth     = "1/8"
	FuelQuarter       = "1/4"
	FuelThreeEighths  = "3/8"
	FuelHalf          = "1/2"
	FuelFiveEighths   = "5/8"
	FuelThreeQuarters = "3/4"
	FuelSevenEighths  = "7/8"
	FuelFull          = "full"
	FuelReserve       = "reserve"
	FuelLow           = "low"
)

// FuelLevels is the full 11-value enumeration in ascending order, legacy
// synonyms last.
var FuelLevels = []string{
	FuelEmpty,
	FuelOneEighth,
	FuelQuarter,
	FuelThreeEighths,
	FuelHalf,
	FuelFiveEighths,
	FuelThreeQuarters,
	FuelSevenEighths,
	FuelFull,
	FuelReserve,
	FuelLow,
}

// ValidFuelLevel reports whether s is one of the recognized fuel level steps.
func ValidFuelLevel(s string) bool {
	for _, l := range FuelLevels {
		if s == l {
			return true
		}
	}
	return false
}
