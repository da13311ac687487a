package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Generation Tools
	DocumentGenerateDescription = `Generate a business document (invoice, quotation, purchase order or receipt) as PDF or HTML.

**When to use:** You have the business, client and line item details and need a finished document file.

**Why it's useful:** Applies the form defaults, recomputes line and summary totals, formats amounts in the document currency and saves the result to the output directory.

**Document fields:**
• type: invoice | quotation | purchase_order | receipt (default invoice)
• number, date (YYYY-MM-DD), dueDate (invoices only)
• business: businessName, businessAddress, businessPhone, businessEmail, businessLogoUrl, signatureUrl, taxRate
• client: name, address, phone, email
• items: [{description, quantity, price, discount}]
• currency: USD | EUR | GBP | INR | NGN (other codes print with "$")

**Examples:**
• Invoice: "Create invoice INV-042 for Globex with 4 widgets at 25.00 and 10% discount"
• Quotation: "Quote three consulting days at 800 EUR each for Initech"
• Receipt: "Issue a receipt for the setup fee paid today"

**Common workflows:**
1. Billing: document_totals → review amounts → document_generate → document_inspect
2. Quoting: document_preview_html → adjust items → document_generate with format pdf

**Best practices:** Leave business fields blank to use the configured business settings.`

	DocumentPreviewHTMLDescription = `Render a business document as a standalone HTML page without saving it.

**When to use:** Reviewing layout and wording before producing the final PDF.

**Why it's useful:** Returns the same content the PDF carries, with images inlined, so it can be shown or stored as is.

**Examples:**
• Review: "Preview quotation Q-2024-07 before sending it"
• Embed: "Get the HTML of the receipt to paste into an email"

**Best practices:** Follow with document_generate once the preview looks right.`

	DocumentTotalsDescription = `Compute line totals, subtotal, tax and grand total for a document without rendering it.

**When to use:** Checking amounts, answering "how much is this invoice", or validating input before generation.

**Why it's useful:** Uses exactly the arithmetic the renderers use: quantity x price less the line discount, tax on the subtotal, all rounded to cents.

**Examples:**
• "What is the grand total of 4 x 25.00 at 10% off plus 50.00 setup with 10% tax?"
• "Validate this purchase order before generating it"

**Best practices:** Validation errors name the offending field, for example items[1].price.`

	// Utility Tools
	DocumentInspectDescription = `Read back a generated PDF from the output directory and report its metadata and text.

**When to use:** Confirming a generated document is a valid PDF, checking its page count or extracting its text.

**Why it's useful:** Opens the file with independent PDF readers, so a broken file is caught before it is sent.

**Examples:**
• "Inspect invoice-INV-042-1710498600000.pdf"
• "How many pages does the last purchase order have?"

**Best practices:** Pass the file name returned by document_generate; paths outside the output directory are rejected.`

	DocumentServerInfoDescription = `Get server status, supported document types, formats, currencies and recently generated files.

**When to use:** Starting a session, checking configuration or finding a previously generated document.

**Why it's useful:** Lists what the server can produce and where it stores files, in one call.

**Examples:**
• System check: "Which PDF engine and output directory is the server using?"
• Discovery: "List the documents generated today"

**Best practices:** Run at the start of a session.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"document_generate":     DocumentGenerateDescription,
	"document_preview_html": DocumentPreviewHTMLDescription,
	"document_totals":       DocumentTotalsDescription,
	"document_inspect":      DocumentInspectDescription,
	"document_server_info":  DocumentServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
