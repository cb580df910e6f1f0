package oracle

import (
	"fmt"
	"strings"

	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/summary"
)

// categorizePrompt lists one transaction per line as
// index|description|amount|currency and asks for a same-length array of
// category labels.
func categorizePrompt(txs []domain.Transaction) Prompt {
	var sys strings.Builder
	sys.WriteString("You categorize personal bank transactions.\n\n")
	sys.WriteString("Use ONLY the following categories:\n")
	for _, c := range domain.AllCategories {
		sys.WriteString("  - " + c + "\n")
	}
	sys.WriteString("\nRULES:\n")
	sys.WriteString("1. Each input line is index|description|amount|currency. Negative amounts are expenses.\n")
	sys.WriteString("2. Return a JSON array of strings with exactly one category per input line, in the same order.\n")
	sys.WriteString("3. Each string must be EXACTLY one of the category names above.\n")
	sys.WriteString("4. If you are unsure, use \"" + domain.CategoryOther + "\".\n")
	sys.WriteString("Return ONLY the raw JSON array. Do NOT wrap it in code fences.\n")

	var b strings.Builder
	for i, tx := range txs {
		fmt.Fprintf(&b, "%d|%s|%.2f|%s\n", i, promptField(tx.Description), tx.Amount, tx.Currency)
	}

	return Prompt{System: sys.String(), Text: b.String(), JSON: true}
}

// imagePrompt asks for a transcription of a statement screenshot.
func imagePrompt(sourceFile string, image []byte, mime string) Prompt {
	var sys strings.Builder
	sys.WriteString("You transcribe screenshots of bank and wallet statements.\n\n")
	sys.WriteString("Output a JSON array of objects. Each object must have these fields:\n")
	sys.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\" when the year is visible, otherwise as printed\n")
	sys.WriteString("- \"description\": string, the merchant or payee\n")
	sys.WriteString("- \"amount\": number (positive for money IN, negative for money OUT)\n")
	sys.WriteString("- \"currency\": string, one of USD, PKR, EUR, GBP\n\n")
	sys.WriteString("Rules:\n")
	sys.WriteString("- Transcribe ALL transactions visible in the image.\n")
	sys.WriteString("- Skip balances, totals and failed or pending entries.\n")
	sys.WriteString("- If the image holds no transactions, return [].\n")
	sys.WriteString("Return ONLY valid raw JSON. Output must begin with \"[\" and end with \"]\".\n")

	return Prompt{
		System:    sys.String(),
		Text:      "Statement image: " + sourceFile,
		Image:     image,
		ImageMIME: mime,
		JSON:      true,
	}
}

// narrativePrompt asks for a short plain-language reading of a report.
func narrativePrompt(r summary.Report) Prompt {
	sys := "You are a personal finance assistant. Write a short, friendly summary " +
		"(at most 5 sentences) of the spending report below. Mention the biggest " +
		"categories and merchants and any month that stands out. Amounts are in " +
		"the currency shown for each block; never convert between currencies. " +
		"Plain text only."
	return Prompt{System: sys, Text: r.Text()}
}

// promptField keeps a value on one line and free of the field separator.
func promptField(s string) string {
	s = strings.NewReplacer("|", "/", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
