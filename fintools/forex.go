package fintools

var forexEntries = []Entry{
	{
		Name:        "get_forex_list",
		Description: "Currency pairs available upstream.",
		Path:        "forex/list",
		Params:      params(tickerOpt, outputFmt, columns),
	},
	{
		Name:        "get_forex_realtime",
		Description: "Realtime quote for a currency pair.",
		Path:        "forex/realtime",
		Params:      params(tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_forex_realtime_1min",
		Description: "Realtime 1-minute bars for a currency pair.",
		Path:        "forex/1min/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_5min",
		Description: "Realtime 5-minute bars for a currency pair.",
		Path:        "forex/5min/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_15min",
		Description: "Realtime 15-minute bars for a currency pair.",
		Path:        "forex/15min/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_30min",
		Description: "Realtime 30-minute bars for a currency pair.",
		Path:        "forex/30min/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_60min",
		Description: "Realtime 60-minute bars for a currency pair.",
		Path:        "forex/60min/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_daily",
		Description: "Realtime daily bars for a currency pair.",
		Path:        "forex/daily/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_weekly",
		Description: "Realtime weekly bars for a currency pair.",
		Path:        "forex/weekly/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_monthly",
		Description: "Realtime monthly bars for a currency pair.",
		Path:        "forex/monthly/realtime",
		Params:      withRange(tickerReq),
	},
	{
		Name:        "get_forex_realtime_yearly",
		Description: "Realtime yearly bars for a currency pair.",
		Path:        "forex/yearly/realtime",
		Params:      withRange(tickerReq),
	},
}
