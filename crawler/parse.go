package crawler

import (
	"html"
	"regexp"
	"strings"
)

var (
	titlePattern    = regexp.MustCompile(`(?s)<h3[^>]*class="[^"]*api-section-title[^"]*"[^>]*>(.*?)</h3>`)
	headingPattern  = regexp.MustCompile(`(?s)<h1[^>]*>(.*?)</h1>`)
	endpointPattern = regexp.MustCompile(`(?s)<(?:code|pre)[^>]*class="[^"]*(?:api-url|endpoint)[^"]*"[^>]*>(.*?)</(?:code|pre)>`)
	urlPattern      = regexp.MustCompile(`https://tsanghi\.com/api/fin/[^\s"'<]+`)
	rowPattern      = regexp.MustCompile(`(?s)<tr class="el-table__row[^>]*>(.*?)</tr>`)
	cellPattern     = regexp.MustCompile(`(?s)<div class="cell">(.*?)</div>`)
	tagPattern      = regexp.MustCompile(`<[^>]+>`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// ParsePage extracts a structured endpoint doc from a documentation page.
// Pages without a recognizable title or endpoint are marked Empty.
func ParsePage(index, page string) EndpointDoc {
	doc := EndpointDoc{Index: index}

	doc.Title = firstMatch(titlePattern, page)
	if doc.Title == "" {
		doc.Title = firstMatch(headingPattern, page)
	}

	doc.Endpoint = extractEndpoint(page)
	doc.Params = extractParams(page)

	if doc.Title == "" && doc.Endpoint == "" && len(doc.Params) == 0 {
		doc.Empty = true
	}
	return doc
}

func extractEndpoint(page string) string {
	if m := firstMatch(endpointPattern, page); m != "" {
		return m
	}
	if m := urlPattern.FindString(page); m != "" {
		// Strip the site prefix so the endpoint is relative to the API root.
		return strings.TrimPrefix(cleanFragment(m), "https://tsanghi.com/api/fin/")
	}
	return ""
}

// extractParams pulls request parameter rows out of the page's parameter
// table. Rows carry four cells: name, type, required marker, description.
// The required marker is the literal text the doc site renders for
// mandatory parameters.
func extractParams(page string) []ParamDoc {
	var params []ParamDoc
	for _, row := range rowPattern.FindAllStringSubmatch(page, -1) {
		cells := cellPattern.FindAllStringSubmatch(row[1], -1)
		if len(cells) < 4 {
			continue
		}
		name := cleanFragment(cells[0][1])
		if name == "" {
			continue
		}
		required := cleanFragment(cells[2][1])
		params = append(params, ParamDoc{
			Name:        name,
			Type:        cleanFragment(cells[1][1]),
			Required:    strings.Contains(required, "必选") || strings.EqualFold(required, "required"),
			Description: cleanFragment(cells[3][1]),
		})
	}
	return params
}

func firstMatch(re *regexp.Regexp, page string) string {
	m := re.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return cleanFragment(m[1])
}

func cleanFragment(fragment string) string {
	s := tagPattern.ReplaceAllString(fragment, " ")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
