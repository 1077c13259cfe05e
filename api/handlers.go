package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/riscv-toolkit/rvasm/assembler"
	"github.com/riscv-toolkit/rvasm/config"
	"github.com/riscv-toolkit/rvasm/decoder"
	"github.com/riscv-toolkit/rvasm/tools"
)

// handleAssemble handles POST /api/v1/assemble
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssembleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response := s.assemble(req)
	status := http.StatusOK
	if !response.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, response)
}

// assemble runs the two-pass pipeline over req and renders the wire response.
func (s *Server) assemble(req AssembleRequest) AssembleResponse {
	xlen := req.XLEN
	if xlen != 32 && xlen != 64 {
		xlen = 32
	}
	filename := req.Filename
	if filename == "" {
		filename = "api"
	}

	opts := assembler.DefaultOptions()
	opts.XLEN = xlen

	result := assembler.Assemble(req.Source, filename, s.catalogs, opts)
	if !result.Success {
		return AssembleResponse{Success: false, Errors: result.Errors}
	}

	allBytes := make([]byte, 0, len(result.TextBytes)+len(result.DataBytes))
	allBytes = append(allBytes, result.TextBytes...)
	allBytes = append(allBytes, result.DataBytes...)

	symbols := make(map[string]uint64, len(result.DataLabels))
	for name, addr := range result.DataLabels {
		symbols[name] = addr
	}

	return AssembleResponse{
		Success: true,
		Bytes:   allBytes,
		Listing: renderListing(result),
		Symbols: symbols,
	}
}

// renderListing produces an "address: bytes" line per assembled text address.
func renderListing(result *assembler.Result) string {
	var sb strings.Builder
	for addr := result.TextBase; int(addr-result.TextBase) < len(result.TextBytes); addr += 4 {
		off := addr - result.TextBase
		if int(off)+4 > len(result.TextBytes) {
			break
		}
		word := result.TextBytes[off : off+4]
		fmt.Fprintf(&sb, "%08X: %02X%02X%02X%02X\n", addr, word[0], word[1], word[2], word[3])
	}
	return sb.String()
}

// handleDecode handles POST /api/v1/decode
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DecodeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	word, err := parseHexOrDec(req.Word)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, DecodeResponse{Success: false, Error: "invalid word"})
		return
	}

	xlen := req.XLEN
	if xlen != 32 && xlen != 64 {
		xlen = 32
	}

	decoded, err := decoder.Decode(uint32(word), xlen, s.catalogs) // #nosec G115 -- parseHexOrDec validates input fits in uint32
	if err != nil {
		writeJSON(w, http.StatusOK, DecodeResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, DecodeResponse{
		Success:     true,
		Mnemonic:    decoded.Instruction.Mnemonic,
		Disassembly: decoded.Assembly,
		Extension:   decoded.Instruction.Extension,
	})
}

// handleFormat handles POST /api/v1/format
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req FormatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "api"
	}

	var style tools.FormatStyle
	switch req.Style {
	case "compact":
		style = tools.FormatCompact
	case "expanded":
		style = tools.FormatExpanded
	default:
		style = tools.FormatDefault
	}

	output, err := tools.FormatStringWithStyle(req.Source, filename, style)
	if err != nil {
		writeJSON(w, http.StatusOK, FormatResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, FormatResponse{Success: true, Output: output})
}

// handleLint handles POST /api/v1/lint
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LintRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "api"
	}

	linter := tools.NewLinter(tools.DefaultLintOptions())
	issues := linter.Lint(req.Source, filename)

	infos := make([]LintIssueInfo, len(issues))
	for i, issue := range issues {
		infos[i] = LintIssueInfo{
			Level:   issue.Level.String(),
			Line:    issue.Line,
			Message: issue.Message,
			Code:    issue.Code,
		}
	}

	writeJSON(w, http.StatusOK, LintResponse{Issues: infos})
}

// handleXRef handles POST /api/v1/xref
func (s *Server) handleXRef(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req XRefRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "api"
	}

	report, err := tools.GenerateXRef(req.Source, filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, XRefResponse{Report: report})
}

// handleCreateWorkspace handles POST /api/v1/workspace
func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ws, err := s.workspaces.CreateWorkspace(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create workspace: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, WorkspaceCreateResponse{
		WorkspaceID: ws.ID,
		CreatedAt:   ws.CreatedAt,
	})
}

// handleListWorkspaces handles GET /api/v1/workspace
func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ids := s.workspaces.ListWorkspaces()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workspaces": ids,
		"count":      len(ids),
	})
}

// handleGetWorkspaceStatus handles GET /api/v1/workspace/{id}
func (s *Server) handleGetWorkspaceStatus(w http.ResponseWriter, r *http.Request, workspaceID string) {
	ws, err := s.workspaces.GetWorkspace(workspaceID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}

	response := WorkspaceStatusResponse{WorkspaceID: ws.ID, XLEN: ws.XLEN}
	if last, ok := ws.LastResult(); ok {
		response.HasResult = true
		response.Success = last.Success
		response.ByteCount = len(last.Bytes)
		response.Errors = last.Errors
	}

	writeJSON(w, http.StatusOK, response)
}

// handleDestroyWorkspace handles DELETE /api/v1/workspace/{id}
func (s *Server) handleDestroyWorkspace(w http.ResponseWriter, r *http.Request, workspaceID string) {
	if err := s.workspaces.DestroyWorkspace(workspaceID); err != nil {
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Workspace destroyed"})
}

// handleWorkspaceAssemble handles POST /api/v1/workspace/{id}/assemble
// Assembling through a workspace (rather than the stateless /assemble
// endpoint) records the result and broadcasts it to subscribed
// WebSocket clients, so multiple viewers stay in sync as the workspace
// is edited.
func (s *Server) handleWorkspaceAssemble(w http.ResponseWriter, r *http.Request, workspaceID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws, err := s.workspaces.GetWorkspace(workspaceID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}

	var req AssembleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.XLEN == 0 {
		req.XLEN = ws.XLEN
	}

	response := s.assemble(req)
	ws.SetLastResult(&response)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastAssembled(workspaceID, map[string]interface{}{
			"success":   response.Success,
			"byteCount": len(response.Bytes),
			"errors":    response.Errors,
		})
	}

	status := http.StatusOK
	if !response.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, response)
}

// parseHexOrDec parses a string as either hexadecimal (0x prefix) or decimal
func parseHexOrDec(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	if len(s) > 2 && s[:2] == "0x" {
		return strconv.ParseUint(s[2:], 16, 32)
	}

	return strconv.ParseUint(s, 10, 32)
}

// handleGetConfig handles GET /api/v1/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := config.DefaultConfig()
	writeJSON(w, http.StatusOK, toConfigResponse(cfg))
}

// handleUpdateConfig handles PUT /api/v1/config
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cfg ConfigResponse
	if err := readJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The body is parsed and then discarded: no server state or file
	// changes, and GET /api/v1/config keeps returning the defaults. The
	// API server does not read a config file.
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Configuration updated",
	})
}

func toConfigResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		Target: TargetConfig{
			XLEN:            cfg.Target.XLEN,
			TextBase:        cfg.Target.TextBase,
			DataBase:        cfg.Target.DataBase,
			Extensions:      cfg.Target.Extensions,
			AllowNumericCSR: cfg.Target.AllowNumericCSR,
		},
		Display: DisplayConfig{
			ColorOutput:    cfg.Display.ColorOutput,
			BytesPerLine:   cfg.Display.BytesPerLine,
			NumberFormat:   cfg.Display.NumberFormat,
			ShowEncoding:   cfg.Display.ShowEncoding,
			ListingContext: cfg.Display.ListingContext,
		},
		Server: ServerConfig{
			ListenAddr:      cfg.Server.ListenAddr,
			EnableWebSocket: cfg.Server.EnableWebSocket,
			MaxRequestBytes: cfg.Server.MaxRequestBytes,
		},
	}
}

// handleListExamples handles GET /api/v1/examples
func (s *Server) handleListExamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	examplesDir := "examples"
	entries, err := os.ReadDir(examplesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read examples directory: %v", err))
		return
	}

	examples := make([]ExampleInfo, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".s") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		examples = append(examples, ExampleInfo{Name: name, Size: info.Size()})
	}

	writeJSON(w, http.StatusOK, ExamplesResponse{Examples: examples, Count: len(examples)})
}

// handleGetExample handles GET /api/v1/examples/{name}
func (s *Server) handleGetExample(w http.ResponseWriter, r *http.Request, exampleName string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Security: prevent path traversal
	if strings.Contains(exampleName, "..") || strings.Contains(exampleName, "/") {
		writeError(w, http.StatusBadRequest, "Invalid example name")
		return
	}

	examplePath := filepath.Join("examples", exampleName)
	content, err := os.ReadFile(examplePath) // #nosec G304 -- path is validated above
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Example not found: %s", exampleName))
		return
	}

	info, err := os.Stat(examplePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get file info")
		return
	}

	writeJSON(w, http.StatusOK, ExampleContentResponse{
		Name:    exampleName,
		Content: string(content),
		Size:    info.Size(),
	})
}
