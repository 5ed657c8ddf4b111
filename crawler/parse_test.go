package crawler

import (
	"testing"
)

const samplePage = `
<html><body>
<h3 class="api-section-title">Stock &gt; Daily Bars</h3>
<code class="api-url">https://tsanghi.com/api/fin/stock/{exchange_code}/daily?token=demo</code>
<table class="el-table">
<tr class="el-table__row"><td><div class="cell">token</div></td><td><div class="cell">string</div></td><td><div class="cell">必选</div></td><td><div class="cell">API token</div></td></tr>
<tr class="el-table__row"><td><div class="cell">ticker</div></td><td><div class="cell">string</div></td><td><div class="cell">可选</div></td><td><div class="cell">Stock ticker</div></td></tr>
<tr class="el-table__row"><td><div class="cell">limit</div></td><td><div class="cell">integer</div></td><td><div class="cell">可选</div></td><td><div class="cell">Row limit</div></td></tr>
</table>
</body></html>`

func TestParsePageExtractsEndpointDoc(t *testing.T) {
	doc := ParsePage("2-1-1", samplePage)

	if doc.Empty {
		t.Fatal("Empty = true, want parsed doc")
	}
	if doc.Index != "2-1-1" {
		t.Fatalf("Index = %q, want 2-1-1", doc.Index)
	}
	if doc.Title != "Stock > Daily Bars" {
		t.Fatalf("Title = %q, want Stock > Daily Bars", doc.Title)
	}
	if doc.Endpoint == "" {
		t.Fatal("Endpoint is empty")
	}

	if len(doc.Params) != 3 {
		t.Fatalf("params = %d, want 3", len(doc.Params))
	}
	token := doc.Params[0]
	if token.Name != "token" || !token.Required {
		t.Fatalf("params[0] = %+v, want required token", token)
	}
	ticker := doc.Params[1]
	if ticker.Name != "ticker" || ticker.Required {
		t.Fatalf("params[1] = %+v, want optional ticker", ticker)
	}
	if ticker.Description != "Stock ticker" {
		t.Fatalf("ticker description = %q, want Stock ticker", ticker.Description)
	}
	if doc.Params[2].Type != "integer" {
		t.Fatalf("limit type = %q, want integer", doc.Params[2].Type)
	}
}

func TestParsePageMarksEmptyPages(t *testing.T) {
	doc := ParsePage("5-5-5", "<html><body><div>nothing here</div></body></html>")
	if !doc.Empty {
		t.Fatal("Empty = false, want true for contentless page")
	}
	if doc.Index != "5-5-5" {
		t.Fatalf("Index = %q, want 5-5-5", doc.Index)
	}
}

func TestParsePageFallsBackToHeading(t *testing.T) {
	page := `<html><h1>Forex Rates</h1><p>prose only</p></html>`
	doc := ParsePage("3-1-1", page)
	if doc.Title != "Forex Rates" {
		t.Fatalf("Title = %q, want Forex Rates", doc.Title)
	}
	if doc.Empty {
		t.Fatal("Empty = true, want false when a title is present")
	}
}

func TestParsePageSkipsShortRows(t *testing.T) {
	page := `<table>
<tr class="el-table__row"><td><div class="cell">only</div></td><td><div class="cell">two</div></td></tr>
</table>`
	doc := ParsePage("2-2-2", page)
	if len(doc.Params) != 0 {
		t.Fatalf("params = %+v, want none from short rows", doc.Params)
	}
}

func TestIndices(t *testing.T) {
	indices := Indices()
	// Sections 2..5, five groups of five pages each.
	if len(indices) != 4*5*5 {
		t.Fatalf("indices = %d, want 100", len(indices))
	}
	if indices[0] != "2-1-1" {
		t.Fatalf("first index = %q, want 2-1-1", indices[0])
	}
	if indices[len(indices)-1] != "5-5-5" {
		t.Fatalf("last index = %q, want 5-5-5", indices[len(indices)-1])
	}
	seen := make(map[string]bool, len(indices))
	for _, index := range indices {
		if seen[index] {
			t.Fatalf("duplicate index %q", index)
		}
		seen[index] = true
	}
}
