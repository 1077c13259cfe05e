package api

import (
	"time"
)

// AssembleRequest represents a request to assemble a source file
type AssembleRequest struct {
	Source   string `json:"source"`             // Assembly source code
	Filename string `json:"filename,omitempty"` // Display name for diagnostics
	XLEN     int    `json:"xlen,omitempty"`     // 32 or 64; any other value assembles as 32 (a workspace assemble uses the workspace's XLEN when 0)
}

// AssembleResponse represents the result of assembling a source file
type AssembleResponse struct {
	Success  bool              `json:"success"`
	Bytes    []byte            `json:"bytes,omitempty"`   // Encoded machine code, base64 over the wire
	Listing  string            `json:"listing,omitempty"` // "address: bytes" line per text word; no source text
	Symbols  map[string]uint64 `json:"symbols,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// DecodeRequest represents a request to decode a single machine word
type DecodeRequest struct {
	Word    string `json:"word"`           // Hex or decimal encoding of the word
	Address uint64 `json:"address,omitempty"`
	XLEN    int    `json:"xlen,omitempty"`
}

// DecodeResponse represents a decoded instruction
type DecodeResponse struct {
	Success     bool   `json:"success"`
	Mnemonic    string `json:"mnemonic,omitempty"`
	Disassembly string `json:"disassembly,omitempty"`
	Extension   string `json:"extension,omitempty"`
	Error       string `json:"error,omitempty"`
}

// FormatRequest represents a request to reformat source code
type FormatRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
	Style    string `json:"style,omitempty"` // "default", "compact", "expanded"
}

// FormatResponse represents reformatted source code
type FormatResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LintRequest represents a request to lint source code
type LintRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
}

// LintIssueInfo mirrors tools.LintIssue for the wire format
type LintIssueInfo struct {
	Level   string `json:"level"`
	Line    int    `json:"line"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// LintResponse represents the result of linting source code
type LintResponse struct {
	Issues []LintIssueInfo `json:"issues"`
}

// XRefRequest represents a request to generate a symbol cross-reference
type XRefRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
}

// XRefResponse represents a cross-reference report
type XRefResponse struct {
	Report string `json:"report"`
}

// WorkspaceCreateRequest represents a request to create a new workspace
type WorkspaceCreateRequest struct {
	XLEN int `json:"xlen,omitempty"`
}

// WorkspaceCreateResponse represents the response from creating a workspace
type WorkspaceCreateResponse struct {
	WorkspaceID string    `json:"workspaceId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WorkspaceStatusResponse describes a workspace's most recently assembled state
type WorkspaceStatusResponse struct {
	WorkspaceID string   `json:"workspaceId"`
	XLEN        int      `json:"xlen"`
	HasResult   bool     `json:"hasResult"`
	Success     bool     `json:"success,omitempty"`
	ByteCount   int      `json:"byteCount,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Event represents a WebSocket event
type Event struct {
	Type        string      `json:"type"`
	WorkspaceID string      `json:"workspaceId"`
	Timestamp   time.Time   `json:"timestamp"`
	Data        interface{} `json:"data"`
}

// ExampleInfo describes a bundled example source file
type ExampleInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ExamplesResponse lists bundled example source files
type ExamplesResponse struct {
	Examples []ExampleInfo `json:"examples"`
	Count    int           `json:"count"`
}

// ExampleContentResponse returns the content of a bundled example
type ExampleContentResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// ConfigResponse mirrors the subset of config.Config exposed over the API
type ConfigResponse struct {
	Target  TargetConfig  `json:"target"`
	Display DisplayConfig `json:"display"`
	Server  ServerConfig  `json:"server"`
}

// TargetConfig mirrors config.Config.Target
type TargetConfig struct {
	XLEN            int    `json:"xlen"`
	TextBase        string `json:"textBase"`
	DataBase        string `json:"dataBase"`
	Extensions      string `json:"extensions"`
	AllowNumericCSR bool   `json:"allowNumericCsr"`
}

// DisplayConfig mirrors config.Config.Display
type DisplayConfig struct {
	ColorOutput    bool   `json:"colorOutput"`
	BytesPerLine   int    `json:"bytesPerLine"`
	NumberFormat   string `json:"numberFormat"`
	ShowEncoding   bool   `json:"showEncoding"`
	ListingContext int    `json:"listingContext"`
}

// ServerConfig mirrors config.Config.Server
type ServerConfig struct {
	ListenAddr      string `json:"listenAddr"`
	EnableWebSocket bool   `json:"enableWebSocket"`
	MaxRequestBytes int    `json:"maxRequestBytes"`
}
