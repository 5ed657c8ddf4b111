package fintools

import "github.com/findata-labs/finmcp/tool"

func params(ps ...tool.Param) []tool.Param { return ps }

func withRange(ps ...tool.Param) []tool.Param {
	out := make([]tool.Param, 0, len(ps)+len(rangeParams))
	out = append(out, ps...)
	out = append(out, rangeParams...)
	return out
}

var stockEntries = []Entry{
	{
		Name:        "get_stock_realtime_daily",
		Description: "Realtime daily quote for a stock.",
		Path:        "stock/{exchange_code}/daily/realtime",
		Params:      params(exchangeCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_stock_realtime_weekly",
		Description: "Realtime weekly quote for a stock.",
		Path:        "stock/{exchange_code}/weekly/realtime",
		Params:      params(exchangeCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_stock_realtime_monthly",
		Description: "Realtime monthly quote for a stock.",
		Path:        "stock/{exchange_code}/monthly/realtime",
		Params:      params(exchangeCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_stock_realtime_yearly",
		Description: "Realtime yearly quote for a stock.",
		Path:        "stock/{exchange_code}/yearly/realtime",
		Params:      params(exchangeCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_company_info",
		Description: "Company profile for a listed stock.",
		Path:        "stock/{exchange_code}/company/info",
		Params:      params(exchangeCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_company_officers",
		Description: "Officers and senior management of a listed company.",
		Path:        "stock/{exchange_code}/company/officer",
		Params:      params(exchangeCode, tickerReq, outputFmt, columns),
	},
	{
		Name:        "get_stock_list",
		Description: "Securities listed on an exchange.",
		Path:        "stock/{exchange_code}/list",
		Params: params(exchangeCode, tickerOpt,
			intParam("is_active", "Listing status: 0 delisted, 1 active, 2 all."),
			outputFmt, columns),
	},
	{
		Name:        "get_exchange_info",
		Description: "Stock exchange reference data, filterable by exchange or country.",
		Path:        "stock/exchange",
		Params: params(
			strParam("exchange_code", "Exchange code filter.", false),
			strParam("country_code", "Country/region code filter.", false),
			outputFmt, columns),
	},
	{
		Name:        "get_stock_splits",
		Description: "Historical share splits for a stock.",
		Path:        "stock/{exchange_code}/split",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_stock_dividends",
		Description: "Historical dividends for a stock.",
		Path:        "stock/{exchange_code}/dividend",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_stock_allotments",
		Description: "Historical rights-issue allotments for a stock.",
		Path:        "stock/{exchange_code}/allot",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
}
