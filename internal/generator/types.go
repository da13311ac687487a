package generator

import (
	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/inspect"
	"github.com/a3tai/bizdocs/internal/output"
	"github.com/a3tai/bizdocs/internal/render"
)

// Request Types

// GenerateRequest asks for one document rendition
type GenerateRequest struct {
	Document *document.Document `json:"document"`
	Format   render.Format      `json:"format"`
	// Save writes the rendition to the output directory
	Save bool `json:"save"`
}

// Response Types

// GenerateResult is a rendered document
type GenerateResult struct {
	Result      *render.Result     `json:"-"`
	Document    *document.Document `json:"document"`
	Format      render.Format      `json:"format"`
	ContentType string             `json:"content_type"`
	FileName    string             `json:"file_name"`
	Path        string             `json:"path,omitempty"`
	Size        int                `json:"size"`
	Pages       int                `json:"pages,omitempty"`
}

// InspectResult describes a stored PDF
type InspectResult struct {
	Path       string              `json:"path"`
	Report     *inspect.Report     `json:"report"`
	Validation *inspect.Validation `json:"validation"`
}

// DocumentTypeInfo pairs a document type with its printed title
type DocumentTypeInfo struct {
	Type     document.Type `json:"type"`
	Title    string        `json:"title"`
	DueDate  bool          `json:"due_date"`
	FileStem string        `json:"file_stem"`
}

// ServerInfoResult summarises what the service can produce
type ServerInfoResult struct {
	ServerName       string             `json:"server_name"`
	Version          string             `json:"version"`
	PDFEngine        string             `json:"pdf_engine"`
	Formats          []render.Format    `json:"formats"`
	DocumentTypes    []DocumentTypeInfo `json:"document_types"`
	Currencies       []string           `json:"currencies"`
	DescriptionModes []string           `json:"description_modes"`
	OutputDirectory  string             `json:"output_directory"`
	RecentFiles      []output.FileInfo  `json:"recent_files"`
	VerifyOutput     bool               `json:"verify_output"`
}
