package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/config"
	"github.com/a3tai/bizdocs/internal/descriptions"
	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/generator"
	"github.com/a3tai/bizdocs/internal/money"
	"github.com/a3tai/bizdocs/internal/render"
)

// EndpointPath is where the streamable HTTP transport is mounted
const EndpointPath = "/mcp"

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *generator.Service
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *generator.Service, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // tools are fixed at startup
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	documentArg := mcp.WithObject("document",
		mcp.Required(),
		mcp.Description("Document with type, number, date, dueDate, business, client, items and currency"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		"document_generate",
		mcp.WithDescription(descriptions.GetToolDescription("document_generate")),
		documentArg,
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum(string(render.FormatPDF), string(render.FormatHTML)),
			mcp.DefaultString(string(render.FormatPDF)),
		),
	), s.handleGenerate)

	s.mcpServer.AddTool(mcp.NewTool(
		"document_preview_html",
		mcp.WithDescription(descriptions.GetToolDescription("document_preview_html")),
		documentArg,
	), s.handlePreviewHTML)

	s.mcpServer.AddTool(mcp.NewTool(
		"document_totals",
		mcp.WithDescription(descriptions.GetToolDescription("document_totals")),
		documentArg,
	), s.handleTotals)

	s.mcpServer.AddTool(mcp.NewTool(
		"document_inspect",
		mcp.WithDescription(descriptions.GetToolDescription("document_inspect")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("File name (or path) of a document in the output directory"),
		),
	), s.handleInspect)

	s.mcpServer.AddTool(mcp.NewTool(
		"document_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("document_server_info")),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentArgument(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := render.ParseFormat(request.GetString("format", string(render.FormatPDF)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Generate(ctx, generator.GenerateRequest{
		Document: doc,
		Format:   format,
		Save:     true,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultResource(s.formatGenerateResult(result), mcp.BlobResourceContents{
		URI:      "file://" + result.Path,
		MIMEType: result.ContentType,
		Blob:     result.Result.Base64(),
	}), nil
}

func (s *Server) handlePreviewHTML(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentArgument(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Preview(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(result.Result.Bytes())), nil
}

func (s *Server) handleTotals(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := documentArgument(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.service.Totals(doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatTotalsResult(out)), nil
}

func (s *Server) handleInspect(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Inspect(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatInspectResult(result)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// documentArgument accepts the document either as a JSON object or as a
// string holding JSON
func documentArgument(request mcp.CallToolRequest) (*document.Document, error) {
	raw, ok := request.GetArguments()["document"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("required argument \"document\" not found")
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("invalid document argument: %w", err)
		}
	}
	return document.DecodeJSON(strings.NewReader(string(data)))
}

// Formatting methods
func (s *Server) formatGenerateResult(result *generator.GenerateResult) string {
	doc := result.Document
	text := fmt.Sprintf("Generated %s %s\n", doc.Title(), strings.ToUpper(string(result.Format)))
	text += fmt.Sprintf("File: %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	if result.Pages > 0 {
		text += fmt.Sprintf("Pages: %d\n", result.Pages)
	}
	text += fmt.Sprintf("Client: %s\n", doc.Client.Name)
	text += fmt.Sprintf("Items: %d\n", len(doc.Items))
	text += fmt.Sprintf("Grand Total: %s\n", money.Format(doc.Totals.GrandTotal, doc.Currency))
	return text
}

func (s *Server) formatTotalsResult(doc *document.Document) string {
	text := fmt.Sprintf("Totals for %s\n", doc.Title())
	for i, item := range doc.Items {
		text += fmt.Sprintf("%d. %s: %s x %s", i+1, item.Description,
			money.Amount(item.Quantity), money.Format(item.Price, doc.Currency))
		if item.Discount > 0 {
			text += fmt.Sprintf(" less %s%%", money.Amount(item.Discount))
		}
		text += fmt.Sprintf(" = %s\n", money.Format(item.Total, doc.Currency))
	}
	text += fmt.Sprintf("\nSubtotal: %s\n", money.Format(doc.Totals.Subtotal, doc.Currency))
	text += fmt.Sprintf("Tax (%s%%): %s\n", money.Amount(doc.Totals.TaxRate), money.Format(doc.Totals.TaxAmount, doc.Currency))
	text += fmt.Sprintf("Grand Total: %s\n", money.Format(doc.Totals.GrandTotal, doc.Currency))
	return text
}

func (s *Server) formatInspectResult(result *generator.InspectResult) string {
	text := fmt.Sprintf("Document: %s\n", result.Path)
	if result.Validation.Valid {
		text += "Valid: yes\n"
	} else {
		text += fmt.Sprintf("Valid: no (%s)\n", result.Validation.Message)
	}

	report := result.Report
	text += fmt.Sprintf("Pages: %d\n", report.Pages)
	text += fmt.Sprintf("Size: %d bytes\n", report.Size)
	if report.Title != "" {
		text += fmt.Sprintf("Title: %s\n", report.Title)
	}
	if report.Subject != "" {
		text += fmt.Sprintf("Subject: %s\n", report.Subject)
	}
	if report.Author != "" {
		text += fmt.Sprintf("Author: %s\n", report.Author)
	}
	if report.Producer != "" {
		text += fmt.Sprintf("Producer: %s\n", report.Producer)
	}
	if report.Text != "" {
		text += "\nContent:\n" + report.Text
	}
	return text
}

func (s *Server) formatServerInfoResult(result *generator.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("🖨️  PDF Engine: %s (verify output: %t)\n\n", result.PDFEngine, result.VerifyOutput)

	text += "📄 Document Types:\n"
	for _, t := range result.DocumentTypes {
		text += fmt.Sprintf("   • %s (%s)", t.Type, t.Title)
		if t.DueDate {
			text += ", prints due date"
		}
		text += "\n"
	}

	formats := make([]string, 0, len(result.Formats))
	for _, f := range result.Formats {
		formats = append(formats, string(f))
	}
	text += fmt.Sprintf("\n🗂️  Formats: %s\n", strings.Join(formats, ", "))
	text += fmt.Sprintf("💱 Currencies: %s\n", strings.Join(result.Currencies, ", "))
	text += fmt.Sprintf("✂️  Description Modes: %s\n\n", strings.Join(result.DescriptionModes, ", "))

	if len(result.RecentFiles) > 0 {
		text += fmt.Sprintf("📂 Recent Documents (%d):\n", len(result.RecentFiles))
		for i, file := range result.RecentFiles {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.RecentFiles)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
	} else {
		text += "📂 Recent Documents: none generated yet\n"
	}

	return text
}

// Handler returns the streamable HTTP transport for mounting at EndpointPath
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath(EndpointPath))
}

// ServeStdio serves MCP over in/out until in is closed or ctx is done
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP stdio transport",
		zap.String("output_dir", s.config.OutputDir),
		zap.String("pdf_engine", s.config.PDFEngine))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
