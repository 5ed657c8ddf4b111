package fintools

var fundamentalEntries = []Entry{
	{
		Name:        "get_balance_sheet_annual",
		Description: "Historical annual balance sheets for a stock.",
		Path:        "stock/{exchange_code}/balance/sheet/yearly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_balance_sheet_quarterly",
		Description: "Historical quarterly balance sheets for a stock.",
		Path:        "stock/{exchange_code}/balance/sheet/quarterly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_income_statement_annual",
		Description: "Historical annual income statements for a stock.",
		Path:        "stock/{exchange_code}/income/statement/yearly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_income_statement_quarterly",
		Description: "Historical quarterly income statements for a stock.",
		Path:        "stock/{exchange_code}/income/statement/quarterly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_cash_flow_annual",
		Description: "Historical annual cash-flow statements for a stock.",
		Path:        "stock/{exchange_code}/cash/flow/yearly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_cash_flow_quarterly",
		Description: "Historical quarterly cash-flow statements for a stock.",
		Path:        "stock/{exchange_code}/cash/flow/quarterly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_eps_annual",
		Description: "Historical annual earnings per share for a stock.",
		Path:        "stock/{exchange_code}/earnings/yearly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
	{
		Name:        "get_eps_quarterly",
		Description: "Historical quarterly earnings per share for a stock.",
		Path:        "stock/{exchange_code}/earnings/quarterly",
		Params:      append(withRange(exchangeCode, tickerReq), order),
	},
}
