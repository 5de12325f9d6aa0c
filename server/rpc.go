package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/imotai/HybridSE/row"
)

// HTTPServer exposes Server's four RPCs over a minimal JSON-over-HTTP
// transport, per spec.md §6 ("a minimal JSON-over-HTTP transport").
// Rows travel as base64-encoded byte strings, since the wire format
// itself is the packed binary encoding row.Builder/row.View already
// speak.
type HTTPServer struct {
	srv *Server
	log *zap.Logger
}

// NewHTTPServer wraps srv behind an http.Handler.
func NewHTTPServer(srv *Server, log *zap.Logger) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPServer{srv: srv, log: log}
}

// Handler builds the request mux for the four RPCs.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/createTable", h.handleCreateTable)
	mux.HandleFunc("/v1/insert", h.handleInsert)
	mux.HandleFunc("/v1/query", h.handleQuery)
	mux.HandleFunc("/v1/schema", h.handleGetTableSchema)
	return mux
}

type createTableRequest struct {
	DB      string       `json:"db"`
	TID     int64        `json:"tid"`
	Pids    []int64      `json:"pids"`
	Name    string       `json:"name"`
	Columns []row.Column `json:"columns"`
}

type statusResponse struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *HTTPServer) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: StatusBadRequest, Error: err.Error()})
		return
	}
	schema, err := row.NewSchema(req.Columns...)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: StatusBadRequest, Error: err.Error()})
		return
	}
	status, err := h.srv.CreateTable(req.DB, req.TID, req.Pids, req.Name, schema)
	writeStatus(w, status, err)
}

type insertRequest struct {
	DB    string `json:"db"`
	Table string `json:"table"`
	Key   string `json:"key"`
	Row   string `json:"row"`
}

func (h *HTTPServer) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: StatusBadRequest, Error: err.Error()})
		return
	}
	rowBytes, err := base64.StdEncoding.DecodeString(req.Row)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: StatusBadRequest, Error: err.Error()})
		return
	}
	status, err := h.srv.Insert(req.DB, req.Table, req.Key, rowBytes)
	writeStatus(w, status, err)
}

type queryRequest struct {
	DB    string `json:"db"`
	SQL   string `json:"sql"`
	Limit int    `json:"limit"`
}

type queryResponse struct {
	Status  Status       `json:"status"`
	Error   string       `json:"error,omitempty"`
	Columns []row.Column `json:"columns,omitempty"`
	Rows    []string     `json:"rows,omitempty"`
}

func (h *HTTPServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, queryResponse{Status: StatusBadRequest, Error: err.Error()})
		return
	}
	status, rows, schema, err := h.srv.Query(req.DB, req.SQL, req.Limit)
	if err != nil {
		writeJSON(w, httpStatusFor(status), queryResponse{Status: status, Error: err.Error()})
		return
	}
	encoded := make([]string, len(rows))
	for i, r := range rows {
		encoded[i] = base64.StdEncoding.EncodeToString(r)
	}
	writeJSON(w, http.StatusOK, queryResponse{Status: status, Columns: schema.Columns(), Rows: encoded})
}

type schemaRequest struct {
	DB   string `json:"db"`
	Name string `json:"name"`
}

type schemaResponse struct {
	Status  Status       `json:"status"`
	Error   string       `json:"error,omitempty"`
	Columns []row.Column `json:"columns,omitempty"`
}

func (h *HTTPServer) handleGetTableSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, schemaResponse{Status: StatusBadRequest, Error: err.Error()})
		return
	}
	status, schema, err := h.srv.GetTableSchema(req.DB, req.Name)
	if err != nil {
		writeJSON(w, httpStatusFor(status), schemaResponse{Status: status, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Status: status, Columns: schema.Columns()})
}

func writeStatus(w http.ResponseWriter, status Status, err error) {
	if err != nil {
		writeJSON(w, httpStatusFor(status), statusResponse{Status: status, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}

func httpStatusFor(status Status) int {
	switch status {
	case StatusOK:
		return http.StatusOK
	case StatusBadRequest, StatusSQLError:
		return http.StatusBadRequest
	case StatusTableNotFound:
		return http.StatusNotFound
	case StatusTableExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
