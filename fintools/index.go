package fintools

var indexEntries = []Entry{
	{
		Name:        "get_index_list",
		Description: "Indices available for a country or region.",
		Path:        "index/{country_code}/list",
		Params:      params(countryCode, tickerOpt, outputFmt, columns),
	},
	{
		Name:        "get_index_constituents",
		Description: "Constituent securities of an index.",
		Path:        "index/{country_code}/constituent",
		Params: params(countryCode, tickerOpt,
			strParam("constituent", "Constituent ticker filter.", false),
			outputFmt, columns),
	},
	{
		Name:        "get_index_realtime",
		Description: "Realtime quote for an index.",
		Path:        "index/{country_code}/realtime",
		Params:      params(countryCode, tickerReq, limit, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_daily",
		Description: "Realtime daily bars for an index.",
		Path:        "index/{country_code}/daily/realtime",
		Params:      params(countryCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_weekly",
		Description: "Realtime weekly bars for an index.",
		Path:        "index/{country_code}/weekly/realtime",
		Params:      params(countryCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_monthly",
		Description: "Realtime monthly bars for an index.",
		Path:        "index/{country_code}/monthly/realtime",
		Params:      params(countryCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_yearly",
		Description: "Realtime yearly bars for an index.",
		Path:        "index/{country_code}/yearly/realtime",
		Params:      params(countryCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_5min",
		Description: "Realtime 5-minute bars for an index.",
		Path:        "index/{country_code}/5min/realtime",
		Params:      params(countryCode, tickerReq, limit, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_15min",
		Description: "Realtime 15-minute bars for an index.",
		Path:        "index/{country_code}/15min/realtime",
		Params:      params(countryCode, tickerReq, limit, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_30min",
		Description: "Realtime 30-minute bars for an index.",
		Path:        "index/{country_code}/30min/realtime",
		Params:      params(countryCode, tickerReq, limit, outputFmt, columns),
	},
	{
		Name:        "get_index_realtime_60min",
		Description: "Realtime 60-minute bars for an index.",
		Path:        "index/{country_code}/60min/realtime",
		Params:      params(countryCode, tickerReq, limit, outputFmt, columns),
	},
}
