package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/a3tai/bizdocs/internal/generator"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

const invoiceJSON = `{
  "type": "invoice",
  "number": "INV-042",
  "date": "2024-03-15",
  "dueDate": "2024-04-14",
  "business": {"businessName": "Acme Supplies Ltd", "taxRate": 10},
  "client": {"name": "Globex Corporation"},
  "items": [
    {"description": "Widgets", "quantity": 4, "price": 25, "discount": 10},
    {"description": "Setup", "quantity": 1, "price": 50}
  ]
}`

func newTestServer(t *testing.T, settingsFile string, opts ...Option) *Server {
	t.Helper()
	svc, err := generator.NewService(generator.Options{
		OutputDir:    "/srv/bizdocs/out",
		SettingsFile: settingsFile,
		FS:           afero.NewMemMapFs(),
		Now:          func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewServer(svc, opts...)
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

// actions collects the data-action attributes of the form buttons
func actions(n *html.Node) []string {
	var out []string
	if n.Type == html.ElementNode && n.Data == "button" {
		for _, a := range n.Attr {
			if a.Key == "data-action" {
				out = append(out, a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, actions(c)...)
	}
	return out
}

func TestServer_Pages(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	root, err := html.Parse(rec.Body)
	require.NoError(t, err)
	assert.Len(t, actions(root), 4, "form buttons")

	rec = do(s, http.MethodGet, "/offline.html", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You are offline")

	rec = do(s, http.MethodGet, "/static/css/style.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_GeneratePDF(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/generate", invoiceJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-INV-042-1710498600000.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestServer_GenerateHTML(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/generate?format=html", invoiceJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".html")
	assert.Contains(t, rec.Body.String(), "Globex Corporation")
}

func TestServer_GenerateErrors(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/generate?format=docx", invoiceJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "unsupported")

	rec = do(s, http.MethodPost, "/api/generate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeError(t, rec)

	bad := strings.Replace(invoiceJSON, `"price": 50`, `"price": -50`, 1)
	rec = do(s, http.MethodPost, "/api/generate", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "items[1].price", decodeError(t, rec).Field)

	rec = do(s, http.MethodGet, "/api/generate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Preview(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/preview", invoiceJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "INVOICE INV-042")
}

func TestServer_Totals(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodPost, "/api/totals", invoiceJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool `json:"success"`
		Document struct {
			Items []struct {
				Total float64 `json:"total"`
			} `json:"items"`
		} `json:"document"`
		Totals struct {
			Subtotal   float64 `json:"subtotal"`
			TaxAmount  float64 `json:"taxAmount"`
			GrandTotal float64 `json:"grandTotal"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Document.Items, 2)
	assert.InDelta(t, 90.0, resp.Document.Items[0].Total, 0.001)
	assert.InDelta(t, 140.0, resp.Totals.Subtotal, 0.001)
	assert.InDelta(t, 14.0, resp.Totals.TaxAmount, 0.001)
	assert.InDelta(t, 154.0, resp.Totals.GrandTotal, 0.001)
}

func TestServer_Settings(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(s, http.MethodGet, "/api/get-settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"settings":{
		"businessName":"","businessAddress":"","businessPhone":"","businessEmail":"",
		"businessLogoUrl":"","signatureUrl":"","taxRate":0,"currency":"USD"}}`, rec.Body.String())

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"businessName":"Initech","taxRate":7.5,"currency":"EUR"}`), 0o600))
	s = newTestServer(t, path)

	rec = do(s, http.MethodGet, "/api/export-settings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			BusinessName string  `json:"businessName"`
			TaxRate      float64 `json:"taxRate"`
			Currency     string  `json:"currency"`
			ExportDate   string  `json:"exportDate"`
		} `json:"data"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Initech", resp.Data.BusinessName)
	assert.InDelta(t, 7.5, resp.Data.TaxRate, 0.001)
	assert.Equal(t, "EUR", resp.Data.Currency)
	assert.Equal(t, "2024-03-15T10:30:00.000000", resp.Data.ExportDate)
	assert.Equal(t, "business_settings_20240315_103000.json", resp.Filename)

	bad := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("businessName: [unclosed"), 0o600))
	s = newTestServer(t, bad)
	rec = do(s, http.MethodGet, "/api/get-settings", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to get settings", decodeError(t, rec).Error)
}

func TestServer_ExportSettingsLocalTime(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*60*60+30*60)
	local := time.Date(2024, 3, 15, 23, 45, 10, 0, kolkata)
	s := newTestServer(t, "", WithClock(func() time.Time { return local }))

	rec := do(s, http.MethodGet, "/api/export-settings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			ExportDate string `json:"exportDate"`
		} `json:"data"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-15T23:45:10.000000", resp.Data.ExportDate)
	assert.Equal(t, "business_settings_20240315_234510.json", resp.Filename)
}

func TestServer_Mount(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := newTestServer(t, "", WithMount("/mcp", mounted))

	rec := do(s, http.MethodPost, "/mcp", `{}`)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
