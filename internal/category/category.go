// Package category holds the fixed chart of accounts the monthly export is
// built against. The tables are compile-time constants: the set of categories,
// sub-accounts and sub-types is closed and matches the paper form used by the
// accountants, so lookups have no error path.
package category

// Key identifies one of the eight receipt categories.
type Key string

const (
	Gasoil               Key = "gasoil"
	RestaurantsAutoroute Key = "restaurants_autoroute"
	MissionReceptions    Key = "mission_receptions"
	HotelsTransport      Key = "hotels_transport"
	EntretienVehicules   Key = "entretien_vehicules"
	FournituresBureaux   Key = "fournitures_bureaux"
	Divers               Key = "divers"
	Salons               Key = "salons"
)

// Config carries the accounting metadata for one category and the flags for
// which conditional receipt fields apply to it.
type Config struct {
	Key         Key    `json:"key"`
	Label       string `json:"label"`
	ShortLabel  string `json:"short_label"`
	AccountCode string `json:"account_code"`
	Section     string `json:"section"`

	// TracksTVA is false for categories whose receipts never carry a VAT
	// amount; amount_tva_cents must stay null for those.
	TracksTVA bool `json:"tracks_tva"`

	// TVADeductionRate: 1.0 fully deductible, 0.8 for gasoil, 0 when no TVA
	// is tracked. The aggregator currently applies the partial rate to the
	// gasoil category only; see export.BuildAccountSummary.
	TVADeductionRate float64 `json:"tva_deduction_rate"`

	HasCompanyName       bool `json:"has_company_name"`
	HasDesignation       bool `json:"has_designation"`
	HasDiversAccountCode bool `json:"has_divers_account_code"`
	HasSalonSubType      bool `json:"has_salon_sub_type"`
}

var configs = map[Key]Config{
	Gasoil: {
		Key:              Gasoil,
		Label:            "Gasoil",
		ShortLabel:       "Gasoil",
		AccountCode:      "6061400",
		Section:          "3000",
		TracksTVA:        true,
		TVADeductionRate: 0.8,
	},
	RestaurantsAutoroute: {
		Key:              RestaurantsAutoroute,
		Label:            "Restaurants / Autoroute",
		ShortLabel:       "Resto",
		AccountCode:      "6251000",
		Section:          "3000",
		TracksTVA:        true,
		TVADeductionRate: 1.0,
	},
	MissionReceptions: {
		Key:              MissionReceptions,
		Label:            "Mission / Réceptions",
		ShortLabel:       "Mission",
		AccountCode:      "6257000",
		Section:          "3000",
		TracksTVA:        true,
		TVADeductionRate: 1.0,
		HasCompanyName:   true,
	},
	HotelsTransport: {
		Key:         HotelsTransport,
		Label:       "Hôtels / Transport",
		ShortLabel:  "Hôtels",
		AccountCode: "6256000",
		Section:     "3000",
	},
	EntretienVehicules: {
		Key:         EntretienVehicules,
		Label:       "Entretien Véhicules",
		ShortLabel:  "Ent.Véh",
		AccountCode: "6155000",
		Section:     "9000",
	},
	FournituresBureaux: {
		Key:              FournituresBureaux,
		Label:            "Fournitures Bureaux",
		ShortLabel:       "Fourn.Bur",
		AccountCode:      "6064000",
		Section:          "3000",
		TracksTVA:        true,
		TVADeductionRate: 1.0,
	},
	Divers: {
		Key:                  Divers,
		Label:                "Divers",
		ShortLabel:           "Divers",
		AccountCode:          "6068000",
		Section:              "3000",
		TracksTVA:            true,
		TVADeductionRate:     1.0,
		HasDesignation:       true,
		HasDiversAccountCode: true,
	},
	Salons: {
		Key:              Salons,
		Label:            "Salons",
		ShortLabel:       "Salons",
		AccountCode:      "6233000",
		Section:          "9500",
		TracksTVA:        true,
		TVADeductionRate: 1.0,
		HasSalonSubType:  true,
	},
}

// order matches the spreadsheet column groups.
var order = []Key{
	Gasoil,
	RestaurantsAutoroute,
	MissionReceptions,
	HotelsTransport,
	EntretienVehicules,
	FournituresBureaux,
	Divers,
	Salons,
}

// Get returns the config for a category key. Unknown keys are a programming
// error; validation happens at the edges, not here.
func Get(key Key) Config {
	return configs[key]
}

// All returns every category config in spreadsheet column order.
func All() []Config {
	out := make([]Config, 0, len(order))
	for _, k := range order {
		out = append(out, configs[k])
	}
	return out
}

// Standard returns the six categories that map one-to-one onto account summary
// rows, i.e. everything except divers and salons.
func Standard() []Key {
	return []Key{
		Gasoil,
		RestaurantsAutoroute,
		MissionReceptions,
		HotelsTransport,
		EntretienVehicules,
		FournituresBureaux,
	}
}

// IsValid reports whether key names one of the eight categories.
func IsValid(key Key) bool {
	_, ok := configs[key]
	return ok
}
