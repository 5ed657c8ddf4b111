package fintools

var referenceEntries = []Entry{
	{
		Name:        "get_country_list",
		Description: "Countries and regions with listed markets.",
		Path:        "stock/country",
		Params: params(
			strParam("country_code", "Country/region code filter.", false),
			outputFmt, columns),
	},
	{
		Name:        "get_country_info",
		Description: "Country and region reference data.",
		Path:        "country",
		Params: params(
			strParam("country_code", "Country/region code filter, e.g. CHN, USA.", false),
			outputFmt, columns),
	},
	{
		Name:        "get_index_country_list",
		Description: "Countries and regions with published indices.",
		Path:        "index/country",
		Params: params(
			strParam("country_code", "Country/region code filter.", false),
			outputFmt, columns),
	},
	{
		Name:        "get_currency_info",
		Description: "Currency reference data.",
		Path:        "currency",
		Params: params(
			strParam("currency_code", "ISO currency code filter, e.g. USD, CNY.", false),
			outputFmt, columns),
	},
	{
		Name:        "search_financial_items",
		Description: "Keyword search across stocks, indices, and currency pairs.",
		Path:        "search/list",
		Params: params(
			strParam("keywords", "Search keywords.", true),
			strParam("type", "Result type filter: stock, index, or forex.", false),
			limit, outputFmt, columns),
	},
}
