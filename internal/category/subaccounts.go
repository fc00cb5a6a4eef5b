package category

// DiversSubAccount is a free sub-account a divers receipt can be booked to.
type DiversSubAccount struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Section string `json:"section"`
}

var diversSubAccounts = []DiversSubAccount{
	{Code: "6155400", Label: "Maintenance", Section: "9000"},
	{Code: "4010000", Label: "Fournisseurs", Section: "3000"},
	{Code: "5800000", Label: "Virements internes", Section: "3000"},
	{Code: "6276000", Label: "Frais bancaires", Section: "3000"},
	{Code: "6063100", Label: "Produits d'entretien", Section: "3000"},
	{Code: "6353000", Label: "Vignette Suisse", Section: "3000"},
	{Code: "6234000", Label: "Cadeaux clients", Section: "3000"},
	{Code: "6378010", Label: "Douane", Section: "3000"},
	{Code: "6063000", Label: "Outillage", Section: "3000"},
	{Code: "6068000", Label: "Échantillons", Section: "3000"},
	{Code: "6135430", Label: "Location véhicule", Section: "9000"},
	{Code: "6261000", Label: "Affranchissement", Section: "3000"},
}

// DiversSubAccounts returns the sub-account list in display order.
func DiversSubAccounts() []DiversSubAccount {
	out := make([]DiversSubAccount, len(diversSubAccounts))
	copy(out, diversSubAccounts)
	return out
}

// DiversSubAccountFor resolves a divers account code to its metadata. Codes
// outside the table fall back to the divers category default.
func DiversSubAccountFor(code string) DiversSubAccount {
	for _, sa := range diversSubAccounts {
		if sa.Code == code {
			return sa
		}
	}
	def := configs[Divers]
	return DiversSubAccount{Code: code, Label: def.Label, Section: def.Section}
}

// SalonSubTypeConfig is one of the trade-show sub-types with its own account.
type SalonSubTypeConfig struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	AccountCode string `json:"account_code"`
	Section     string `json:"section"`
}

var salonSubTypes = []SalonSubTypeConfig{
	{Key: "salons", Label: "Salons", AccountCode: "6233000", Section: "9500"},
	{Key: "sirha", Label: "SIRHA", AccountCode: "6233001", Section: "9500"},
	{Key: "siprho", Label: "SIPRHO", AccountCode: "6233002", Section: "9500"},
}

// SalonSubTypes returns the sub-type list in display order.
func SalonSubTypes() []SalonSubTypeConfig {
	out := make([]SalonSubTypeConfig, len(salonSubTypes))
	copy(out, salonSubTypes)
	return out
}

// SalonSubTypeFor resolves a salon sub-type key, defaulting to the plain
// "salons" sub-type for unknown keys.
func SalonSubTypeFor(key string) SalonSubTypeConfig {
	for _, st := range salonSubTypes {
		if st.Key == key {
			return st
		}
	}
	return salonSubTypes[0]
}

// IsValidSalonSubType reports whether key names a known salon sub-type.
func IsValidSalonSubType(key string) bool {
	for _, st := range salonSubTypes {
		if st.Key == key {
			return true
		}
	}
	return false
}
