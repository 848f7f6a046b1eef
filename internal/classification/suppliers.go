package classification

// ASINPattern matches an Amazon standard identification number.
const ASINPattern = `^B0[A-Z0-9]{8}$`

// AmbiguousSKUPattern matches generic numeric-prefixed SKUs that carry no
// supplier signature.
const AmbiguousSKUPattern = `^\d{3,}([-_:|/. ][A-Za-z0-9]+)*$`

// DefaultSuppliers returns the supplier table in priority order.
func DefaultSuppliers() []Supplier {
	return []Supplier{
		{
			Name:          "Amazon",
			SKUPrefixes:   []string{"AMZ", "AMAZON", "AZ"},
			TitleKeywords: []string{"amazon"},
			ImageDomains:  []string{"media-amazon.com", "ssl-images-amazon.com", "images-amazon.com"},
			IDPattern:     ASINPattern,
		},
		{
			Name:          "Walmart",
			SKUPrefixes:   []string{"WM", "WMT", "WAL", "WALMART"},
			TitleKeywords: []string{"walmart"},
			ImageDomains:  []string{"walmartimages.com"},
		},
		{
			Name:          "AliExpress",
			SKUPrefixes:   []string{"AE", "ALI", "ALIEX", "ALIEXPRESS"},
			TitleKeywords: []string{"aliexpress"},
			ImageDomains:  []string{"alicdn.com", "aliexpress-media.com"},
		},
		{
			Name:          "Home Depot",
			SKUPrefixes:   []string{"HD", "HDP", "HOMEDEPOT"},
			TitleKeywords: []string{"home depot"},
			ImageDomains:  []string{"homedepot-static.com", "homedepot.com"},
		},
		{
			Name:          "CJ Dropshipping",
			SKUPrefixes:   []string{"CJ", "CJD"},
			TitleKeywords: []string{"cjdropshipping"},
			ImageDomains:  []string{"cjdropshipping.com"},
		},
		{
			Name:          "Costco",
			SKUPrefixes:   []string{"COST", "COSTCO"},
			TitleKeywords: []string{"costco"},
			ImageDomains:  []string{"costco-static.com"},
		},
		{
			Name:          "Wayfair",
			SKUPrefixes:   []string{"WF", "WAY", "WAYFAIR"},
			TitleKeywords: []string{"wayfair"},
			ImageDomains:  []string{"wfcdn.com"},
		},
		{
			Name:         "Target",
			SKUPrefixes:  []string{"TGT"},
			ImageDomains: []string{"target.scene7.com"},
		},
		{
			Name:          "Zendrop",
			SKUPrefixes:   []string{"ZD", "ZENDROP"},
			TitleKeywords: []string{"zendrop"},
			ImageDomains:  []string{"zendrop.com"},
		},
		{
			Name:          "Banggood",
			SKUPrefixes:   []string{"BG", "BANGGOOD"},
			TitleKeywords: []string{"banggood"},
			ImageDomains:  []string{"banggood.com"},
		},
	}
}

// DefaultTools returns the automation tools whose SKU wrapping is unwrapped.
// Longer prefixes of the same tool come first.
func DefaultTools() []Tool {
	return []Tool{
		{Name: "AutoDS", Prefixes: []string{"AUTODS"}},
		{Name: "Yaballe", Prefixes: []string{"YABALLE", "YB"}},
		{Name: "DSM Tool", Prefixes: []string{"DSMTOOL", "DSM"}},
		{Name: "Hustle Got Real", Prefixes: []string{"HGR"}},
		{Name: "ZIK", Prefixes: []string{"ZIK"}},
		{Name: "PriceYak", Prefixes: []string{"PRICEYAK", "PY"}},
	}
}
