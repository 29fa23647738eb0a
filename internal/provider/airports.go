package provider

// iataByIcao maps the ICAO airport codes used internally to the IATA codes
// the upstream APIs index by. Covers the airports this deployment is
// configured for plus common European/US hubs.
var iataByIcao = map[string]string{
	"LROP": "OTP", // Bucharest Otopeni
	"LRCL": "CLJ", // Cluj-Napoca
	"LRTR": "TSR", // Timisoara
	"LRIA": "IAS", // Iasi
	"EGLL": "LHR",
	"EGKK": "LGW",
	"EHAM": "AMS",
	"LFPG": "CDG",
	"EDDF": "FRA",
	"EDDM": "MUC",
	"LEMD": "MAD",
	"LEBL": "BCN",
	"LIRF": "FCO",
	"LOWW": "VIE",
	"LSZH": "ZRH",
	"EBBR": "BRU",
	"LTFM": "IST",
	"LGAV": "ATH",
	"LHBP": "BUD",
	"EPWA": "WAW",
	"KJFK": "JFK",
	"KEWR": "EWR",
	"KORD": "ORD",
	"KLAX": "LAX",
	"OMDB": "DXB",
}

// IATAFor translates an internal ICAO airport code to the IATA code used when
// querying a provider. Unknown codes pass through unchanged.
func IATAFor(icao string) string {
	if iata, ok := iataByIcao[icao]; ok {
		return iata
	}
	return icao
}
