// Package fintools holds the generated tool catalog: one declarative table
// entry per upstream endpoint. New tools are added by appending entries (by
// hand or via the codegen command); the registry and dispatcher never change.
package fintools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/findata-labs/finmcp/fin"
	"github.com/findata-labs/finmcp/tool"
)

// Entry describes one endpoint-backed tool. Path placeholders ({name}) must
// each be declared as a required parameter; remaining arguments are forwarded
// as query parameters unchanged.
type Entry struct {
	Name        string
	Description string
	Path        string
	Params      []tool.Param
	Timeout     time.Duration
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// PathParams returns the placeholder names in the entry's path template.
func (e Entry) PathParams() []string {
	matches := placeholderPattern.FindAllStringSubmatch(e.Path, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Spec expands the entry into a registrable tool spec whose handler builds
// exactly one upstream request and passes the response through.
func (e Entry) Spec(client *fin.Client) (tool.Spec, error) {
	for _, name := range e.PathParams() {
		p, ok := paramByName(e.Params, name)
		if !ok {
			return tool.Spec{}, fmt.Errorf("fintools: %s: path parameter %q is not declared", e.Name, name)
		}
		if !p.Required {
			return tool.Spec{}, fmt.Errorf("fintools: %s: path parameter %q must be required", e.Name, name)
		}
	}

	entry := e
	return tool.Spec{
		Name:        e.Name,
		Description: e.Description,
		Params:      e.Params,
		Timeout:     e.Timeout,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			endpoint, query := entry.expand(args)
			return client.Get(ctx, endpoint, query)
		},
	}, nil
}

// expand substitutes path placeholders from args and returns the endpoint
// plus the remaining arguments as query parameters.
func (e Entry) expand(args map[string]any) (string, map[string]any) {
	inPath := make(map[string]bool)
	endpoint := placeholderPattern.ReplaceAllStringFunc(e.Path, func(match string) string {
		name := strings.Trim(match, "{}")
		inPath[name] = true
		return fmt.Sprintf("%v", args[name])
	})

	query := make(map[string]any, len(args))
	for key, value := range args {
		if inPath[key] {
			continue
		}
		query[key] = value
	}
	return endpoint, query
}

// Entries returns the full catalog in its stable registration order.
func Entries() []Entry {
	out := make([]Entry, 0,
		len(stockEntries)+len(forexEntries)+len(indexEntries)+
			len(fundamentalEntries)+len(referenceEntries))
	out = append(out, stockEntries...)
	out = append(out, forexEntries...)
	out = append(out, indexEntries...)
	out = append(out, fundamentalEntries...)
	out = append(out, referenceEntries...)
	return out
}

// RegisterAll expands every catalog entry plus the local utility tools into
// the registry. It fails fast on the first bad entry; the registry rejects
// duplicates, so the catalog must carry a single entry per name.
func RegisterAll(reg *tool.Registry, client *fin.Client) error {
	for _, entry := range Entries() {
		spec, err := entry.Spec(client)
		if err != nil {
			return err
		}
		if err := reg.Register(spec); err != nil {
			return err
		}
	}
	return reg.Register(beijingTimeSpec())
}

// Specs expands the catalog into specs without a configured upstream
// client. Handlers built this way are for listing and schema rendering,
// not invocation.
func Specs() ([]tool.Spec, error) {
	reg := tool.NewRegistry()
	if err := RegisterAll(reg, fin.New(fin.Config{}, nil)); err != nil {
		return nil, err
	}
	return reg.Specs(), nil
}

// beijingTimeSpec is the one hand-registered local tool: it answers from the
// process clock and never calls upstream.
func beijingTimeSpec() tool.Spec {
	return tool.Spec{
		Name:        "get_beijing_time",
		Description: "Current Beijing time (Asia/Shanghai), formatted yyyy-MM-dd HH:mm:ss.",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			loc, err := time.LoadLocation("Asia/Shanghai")
			if err != nil {
				// CST has no DST; a fixed offset is an exact fallback.
				loc = time.FixedZone("CST", 8*60*60)
			}
			return map[string]any{
				"time": time.Now().In(loc).Format("2006-01-02 15:04:05"),
			}, nil
		},
	}
}

func paramByName(params []tool.Param, name string) (tool.Param, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return tool.Param{}, false
}

// Shared parameter declarations. Nearly every endpoint accepts the same
// output-shaping options, so the tables reference these instead of repeating
// them.
func strParam(name, desc string, required bool) tool.Param {
	return tool.Param{Name: name, Type: tool.TypeString, Required: required, Description: desc}
}

func intParam(name, desc string) tool.Param {
	return tool.Param{Name: name, Type: tool.TypeInteger, Description: desc}
}

var (
	exchangeCode = strParam("exchange_code", "Exchange code, e.g. XSHG, XSHE, XNAS.", true)
	countryCode  = strParam("country_code", "Country/region code, e.g. CHN, USA.", true)
	tickerReq    = strParam("ticker", "Security code, e.g. 600519, AAPL.", true)
	tickerOpt    = strParam("ticker", "Security code filter.", false)
	startDate    = strParam("start_date", "Start date, yyyy-mm-dd.", false)
	endDate      = strParam("end_date", "End date, yyyy-mm-dd.", false)
	limit        = intParam("limit", "Maximum number of rows returned.")
	order        = intParam("order", "Date ordering: 0 none, 1 ascending, 2 descending.")
	columns      = strParam("columns", "Comma-separated output columns.", false)
	// fmt stays in the schema for upstream parity; a csv reply is reported
	// as an invalid upstream response since the client requires JSON.
	outputFmt = tool.Param{
		Name: "fmt", Type: tool.TypeString,
		Default:     "json",
		Description: "Output format requested from upstream (json or csv).",
	}
)

// rangeParams is the common tail for historical/range endpoints.
var rangeParams = []tool.Param{startDate, endDate, limit, outputFmt, columns}
