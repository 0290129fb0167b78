package api

import (
	"fmt"
	"slices"
	"strings"
)

// Endpoint identifies a listable resource of the REST API.
type Endpoint string

const (
	EndpointOrders           Endpoint = "orders"
	EndpointItems            Endpoint = "items"
	EndpointVariations       Endpoint = "variations"
	EndpointAttributes       Endpoint = "attributes"
	EndpointManufacturers    Endpoint = "manufacturers"
	EndpointStock            Endpoint = "stock"
	EndpointStorageLocations Endpoint = "storage-locations"
	EndpointContacts         Endpoint = "contacts"
	EndpointVAT              Endpoint = "vat"
	EndpointPrices           Endpoint = "prices"
	EndpointReferrers        Endpoint = "referrers"
	EndpointWarehouses       Endpoint = "warehouses"
)

type withStyle int

const (
	withJoined   withStyle = iota // with=a,b
	withRepeated                  // with[]=a&with[]=b
)

type lastUpdateStyle int

const (
	lastUpdateNone lastUpdateStyle = iota
	lastUpdateDate                 // updatedAt=<W3C date>
	lastUpdateUnix                 // updatedBetween=<unix timestamp>
)

type endpointSpec struct {
	route      string
	refine     []string
	additional []string
	with       withStyle
	lang       bool
	lastUpdate lastUpdateStyle
}

var endpoints = map[Endpoint]endpointSpec{
	EndpointOrders: {
		route: "/rest/orders",
		refine: []string{
			"orderType", "contactId", "referrerId", "shippingProfileId",
			"shippingServiceProviderId", "ownerUserId", "warehouseId",
			"isEbayPlus", "includedVariation", "includedItem", "orderIds",
			"countryId", "orderItemName", "variationNumber", "sender.contact",
			"sender.warehouse", "receiver.contact", "receiver.warehouse",
			"externalOrderId", "clientId", "paymentStatus", "statusFrom",
			"statusTo", "hasDocument", "hasDocumentNumber", "parentOrderId",
		},
		additional: []string{
			"addresses", "relations", "comments", "location", "payments",
			"documents", "contactSender", "contactReceiver",
			"warehouseSender", "warehouseReceiver", "orderItems.variation",
			"orderItems.giftCardCodes", "orderItems.transactions",
			"orderItems.serialNumbers", "orderItems.variationBarcodes",
			"orderItems.comments", "originOrderReferences",
			"shippingPackages",
		},
		with: withRepeated,
	},
	EndpointItems: {
		route:  "/rest/items",
		refine: []string{"name", "manfacturerId", "id", "flagOne", "flagTwo"},
		additional: []string{
			"itemProperties", "itemCrossSelling", "variations", "itemImages",
			"itemShippingProfiles", "ebayTitles",
		},
		lang:       true,
		lastUpdate: lastUpdateUnix,
	},
	EndpointVariations: {
		route: "/rest/items/variations",
		refine: []string{
			"id", "itemId", "flagOne", "flagTwo", "categoryId", "isMain",
			"isActive", "barcode", "referrerId", "sku", "date",
		},
		additional: []string{
			"properties", "variationProperties", "variationBarcodes",
			"variationBundleComponents", "variationComponentBundles",
			"variationSalesPrices", "marketItemNumbers", "variationCategories",
			"variationClients", "variationMarkets", "variationDefaultCategory",
			"variationSuppliers", "variationWarehouses", "images", "itemImages",
			"variationAttributeValues", "variationSkus", "variationAdditionalSkus",
			"unit", "parent", "item", "stock",
		},
		lang: true,
	},
	EndpointAttributes: {
		route:      "/rest/items/attributes",
		additional: []string{"names", "values", "maps"},
		lastUpdate: lastUpdateDate,
	},
	EndpointManufacturers: {
		route:      "/rest/items/manufacturers",
		refine:     []string{"name"},
		additional: []string{"commisions", "externals"},
		lastUpdate: lastUpdateDate,
	},
	EndpointStock: {
		route:  "/rest/stockmanagement/stock",
		refine: []string{"variationId"},
	},
	EndpointStorageLocations: {
		route:  "/rest/stockmanagement/warehouses/%d/stock/storageLocations",
		refine: []string{"variationId"},
	},
	EndpointContacts: {
		route: "/rest/accounts/contacts",
		refine: []string{
			"fullText", "contactEmail", "email", "postalCode", "plentyId",
			"externalId", "number", "typeId", "rating", "createdAtBefore",
			"createdAtAfter", "updatedAtBefore", "updatedAtAfter",
			"lastOrderAtBefore", "lastOrderAtAfter", "with",
			"newsletterAllowanceAfter", "newsletterAllowanceBefore",
			"newsletterAllowance", "contactId", "contactAddress", "countryId",
			"userId", "referrerId", "name", "nameOrId", "town", "privatePhone",
			"billingAddressId", "deliveryAddressId", "tagIds",
		},
	},
	EndpointVAT: {
		route: "/rest/vat",
	},
	EndpointPrices: {
		route:      "/rest/items/sales_prices",
		lastUpdate: lastUpdateDate,
	},
	EndpointReferrers: {
		route: "/rest/orders/referrers",
	},
	EndpointWarehouses: {
		route: "/rest/stockmanagement/warehouses",
	},
}

// Endpoints returns every listable endpoint in sorted order.
func Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for e := range endpoints {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// RefineKeys returns the filter keys accepted by e.
func RefineKeys(e Endpoint) []string {
	return slices.Clone(endpoints[e].refine)
}

// AdditionalKeys returns the "with" values accepted by e.
func AdditionalKeys(e Endpoint) []string {
	return slices.Clone(endpoints[e].additional)
}

// route returns the path of e, filling in path parameters.
func (e Endpoint) route(args ...any) string {
	r := endpoints[e].route
	if len(args) > 0 {
		r = fmt.Sprintf(r, args...)
	}
	return r
}

var languages = []string{
	"bg", "cn", "cz", "da", "de", "en", "es", "fr", "it", "nl",
	"nn", "pl", "pt", "ro", "ru", "se", "sk", "tr", "vn",
}

// Languages returns the language codes accepted for item texts.
func Languages() []string {
	return slices.Clone(languages)
}

// NormalizeLanguage lowercases code and checks it against Languages.
func NormalizeLanguage(code string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(code))
	if !slices.Contains(languages, lang) {
		return "", &InvalidLanguageCodeError{Code: code}
	}
	return lang, nil
}

// countries maps ISO 3166-1 codes to country IDs of the back office.
var countries = map[string]int{
	"DE": 1, "AT": 2, "BE": 3, "CH": 4, "CY": 5, "CZ": 6, "DK": 7, "ES": 8,
	"EE": 9, "FR": 10, "FI": 11, "GB": 12, "GR": 13, "HU": 14, "IT": 15,
	"IE": 16, "LU": 17, "LV": 18, "MT": 19, "NO": 20, "NL": 21, "PT": 22,
	"PL": 23, "SE": 24, "SG": 25, "SK": 26, "SI": 27, "US": 28, "AU": 29,
	"CA": 30, "CN": 31, "JP": 32, "LT": 33, "LI": 34, "MC": 35, "MX": 36,
	"IC": 37, "IN": 38, "BR": 39, "RU": 40, "RO": 41, "EA": 42,
	"BG": 44, "XZ": 45, "KG": 46, "KZ": 47, "BY": 48, "UZ": 49, "MA": 50,
	"AM": 51, "AL": 52, "EG": 53, "HR": 54, "MV": 55, "MY": 56, "HK": 57,
	"YE": 58, "IL": 59, "TW": 60, "GP": 61, "TH": 62, "TR": 63,
	"NZ": 66, "AF": 67, "AX": 68, "DZ": 69, "AS": 70, "AD": 71,
	"AO": 72, "AI": 73, "AQ": 74, "AG": 75, "AR": 76, "AW": 77, "AZ": 78,
	"BS": 79, "BH": 80, "BD": 81, "BB": 82, "BZ": 83, "BJ": 84, "BM": 85,
	"BT": 86, "BO": 87, "BA": 88, "BW": 89, "BV": 90, "IO": 91,
	"BN": 92, "BF": 93, "BI": 94, "KH": 95, "CM": 96, "CV": 97,
	"KY": 98, "CF": 99, "TD": 100, "CL": 101, "CX": 102, "CC": 103,
	"CO": 104, "KM": 105, "CG": 106, "CD": 107, "CK": 108, "CR": 109,
	"CI": 110, "CU": 112, "DJ": 113, "DM": 114, "DO": 115, "EC": 116,
	"SV": 117, "GQ": 118, "ER": 119, "ET": 120, "FK": 121, "FO": 122,
	"FJ": 123, "GF": 124, "PF": 125, "TF": 126, "GA": 127, "GM": 128,
	"GE": 129, "GH": 130, "GI": 131, "GL": 132, "GD": 133, "GU": 134,
	"GT": 135, "GG": 136, "GN": 137, "GW": 138, "GY": 139, "HT": 140,
	"HM": 141, "VA": 142, "HN": 143, "IS": 144, "ID": 145, "IR": 146,
	"IQ": 147, "IM": 148, "JM": 149, "JE": 150, "JO": 151, "KE": 152,
	"KI": 153, "KP": 154, "KR": 155, "KW": 156, "LA": 158, "LB": 159,
	"LS": 160, "LR": 161, "LY": 162, "MO": 163, "MK": 164, "MG": 165,
	"MW": 166, "ML": 168, "MH": 169, "MQ": 170, "MR": 171, "MU": 172,
	"YT": 173, "FM": 174, "MD": 175, "MN": 176, "ME": 177, "MS": 178,
	"MZ": 179, "MM": 180, "NA": 181, "NR": 182, "NP": 183, "AN": 184,
	"NC": 185, "NI": 186, "NE": 187, "NG": 188, "NU": 189, "NF": 190,
	"MP": 191, "OM": 192, "PK": 193, "PW": 194, "PS": 195, "PA": 196,
	"PG": 197, "PY": 198, "PE": 199, "PH": 200, "PN": 201, "PR": 202,
	"QA": 203, "RE": 204, "RW": 205, "SH": 206, "KN": 207, "LC": 208,
	"PM": 209, "VC": 210, "WS": 211, "SM": 212, "ST": 213, "SA": 214,
	"SN": 215, "RS": 216, "SC": 217, "SL": 218, "SB": 219, "SO": 220,
	"ZA": 221, "GS": 222, "LK": 223, "SD": 224, "SR": 225, "SJ": 226,
	"SZ": 227, "SY": 228, "TJ": 229, "TZ": 230, "TL": 231, "TG": 232,
	"TK": 233, "TO": 234, "TT": 235, "TN": 236, "TM": 237, "TC": 238,
	"TV": 239, "UG": 240, "UA": 241, "UM": 242, "UY": 243, "VU": 244,
	"VE": 245, "VN": 246, "VG": 247, "VI": 248, "WF": 249, "EH": 250,
	"ZM": 252, "ZW": 253, "AE": 254, "CUW": 258, "SXM": 259,
	"BES": 260, "BL": 261,
}

// CountryID resolves an ISO 3166-1 code (case-insensitive) to a country ID.
func CountryID(code string) (int, error) {
	id, ok := countries[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, &InvalidParameterError{Name: "country", Reason: fmt.Sprintf("unknown country code %q", code)}
	}
	return id, nil
}
