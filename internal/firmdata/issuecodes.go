package firmdata

// IssueCodes maps LDA general-issue codes to display labels.
var IssueCodes = map[string]string{
	"AGR": "Agriculture",
	"BAN": "Banking",
	"BUD": "Budget/Appropriations",
	"CAW": "Clean Air & Water",
	"COM": "Communications/Broadcasting",
	"CPI": "Computer Industry",
	"CSP": "Consumer Issues",
	"DEF": "Defense",
	"EDU": "Education",
	"ENG": "Energy/Nuclear",
	"ENV": "Environment",
	"FIN": "Financial Services",
	"FOR": "Foreign Relations",
	"FUE": "Fuel/Gas/Oil",
	"GOV": "Government Issues",
	"HCR": "Health Issues",
	"HOM": "Homeland Security",
	"HOU": "Housing",
	"IMM": "Immigration",
	"INS": "Insurance",
	"LBR": "Labor Issues",
	"LAW": "Law Enforcement",
	"MED": "Medical Research",
	"MMM": "Medicare/Medicaid",
	"NAT": "Natural Resources",
	"PHA": "Pharmacy",
	"RES": "Real Estate",
	"SCI": "Science/Technology",
	"SMB": "Small Business",
	"TAX": "Taxation",
	"TEC": "Telecommunications",
	"TRD": "Trade",
	"TRA": "Transportation",
	"UTI": "Utilities",
	"VET": "Veterans",
}

// IssueLabel returns the display label for a code, or the code itself when
// unknown.
func IssueLabel(code string) string {
	if label, ok := IssueCodes[code]; ok {
		return label
	}
	return code
}
