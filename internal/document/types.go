package document

// Type identifies the kind of business document being produced
type Type string

const (
	TypeInvoice       Type = "invoice"
	TypeQuotation     Type = "quotation"
	TypePurchaseOrder Type = "purchase_order"
	TypeReceipt       Type = "receipt"
)

// Default values applied by Normalize when the form leaves a field blank
const (
	DefaultType         = TypeInvoice
	DefaultNumber       = "INV-001"
	DefaultBusinessName = "Your Business Name"
	DefaultCurrency     = "USD"
	DateLayout          = "2006-01-02"
)

// Business holds the issuing business details printed in the document header
type Business struct {
	Name         string  `json:"businessName" yaml:"businessName"`
	Address      string  `json:"businessAddress" yaml:"businessAddress"`
	Phone        string  `json:"businessPhone" yaml:"businessPhone"`
	Email        string  `json:"businessEmail" yaml:"businessEmail"`
	LogoURL      string  `json:"businessLogoUrl" yaml:"businessLogoUrl"`
	SignatureURL string  `json:"signatureUrl" yaml:"signatureUrl"`
	TaxRate      float64 `json:"taxRate" yaml:"taxRate"`
	Currency     string  `json:"currency" yaml:"currency"`
}

// Client holds the recipient details printed under "BILL TO:"
type Client struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	Phone   string `json:"phone" yaml:"phone"`
	Email   string `json:"email" yaml:"email"`
}

// Item is a single line of the items table
type Item struct {
	Description string  `json:"description" yaml:"description"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Price       float64 `json:"price" yaml:"price"`
	Discount    float64 `json:"discount" yaml:"discount"` // percent
	Total       float64 `json:"total" yaml:"total"`
}

// Totals is the summary block printed below the items table
type Totals struct {
	Subtotal   float64 `json:"subtotal" yaml:"subtotal"`
	TaxRate    float64 `json:"taxRate" yaml:"taxRate"`
	TaxAmount  float64 `json:"taxAmount" yaml:"taxAmount"`
	GrandTotal float64 `json:"grandTotal" yaml:"grandTotal"`
}

// Document is the complete data set collected by the document form
type Document struct {
	Type     Type     `json:"type" yaml:"type"`
	Number   string   `json:"number" yaml:"number"`
	Date     string   `json:"date" yaml:"date"`
	DueDate  string   `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Business Business `json:"business" yaml:"business"`
	Client   Client   `json:"client" yaml:"client"`
	Items    []Item   `json:"items" yaml:"items"`
	Totals   Totals   `json:"totals" yaml:"totals"`
	Currency string   `json:"currency" yaml:"currency"`
}

// Settings are the reusable business settings served to the form
type Settings = Business
