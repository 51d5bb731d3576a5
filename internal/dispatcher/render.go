package dispatcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cataloguebot/whatsapp-gate/internal/catalog"
	"github.com/cataloguebot/whatsapp-gate/internal/gate"
)

// MaxResultLines caps the item lines of a results prompt.
const MaxResultLines = 5

const noResultsSuggestions = "• use fewer words\n• search by brand or model only\n• send the exact SKU"

func renderResults(query string, res catalog.Result) map[string]string {
	shown := min(len(res.Items), MaxResultLines)
	total := max(res.Total, len(res.Items))

	lines := make([]string, 0, shown)
	for i, item := range res.Items[:shown] {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, itemLine(item)))
	}

	return map[string]string{
		gate.VarHeader: resultsHeader(query, total),
		gate.VarLines:  strings.Join(lines, "\n"),
		gate.VarFooter: resultsFooter(shown, total),
		gate.VarQuery:  query,
		gate.VarTotal:  strconv.Itoa(total),
	}
}

func renderNoResults(query string) map[string]string {
	return map[string]string{
		gate.VarBody:        fmt.Sprintf("No products matched %q.", query),
		gate.VarQuery:       query,
		gate.VarSuggestions: noResultsSuggestions,
	}
}

func resultsHeader(query string, total int) string {
	noun := "products"
	if total == 1 {
		noun = "product"
	}
	return fmt.Sprintf("Found %d %s for %q:", total, noun, query)
}

func resultsFooter(shown, total int) string {
	if total > shown {
		return fmt.Sprintf("Showing %d of %d. Send a more specific query to narrow it down.", shown, total)
	}
	return "Send another query, or tap *Pause* to stop messages."
}

func itemLine(item catalog.Item) string {
	var b strings.Builder
	b.WriteString(item.Name)
	if desc := strings.TrimSpace(item.Brand + " " + item.Model); desc != "" {
		fmt.Fprintf(&b, " (%s)", desc)
	}
	if item.SKU != "" {
		fmt.Fprintf(&b, " · SKU %s", item.SKU)
	}
	fmt.Fprintf(&b, " · %.2f", item.Price)
	if item.InStock() {
		fmt.Fprintf(&b, " · in stock (%d)", item.Stock)
	} else {
		b.WriteString(" · out of stock")
	}
	return b.String()
}
