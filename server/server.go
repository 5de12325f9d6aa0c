// Package server implements the tablet server: a process-wide registry
// of partitions addressed by (db, table id, partition id), the four
// RPCs spec.md §6 defines, and a minimal JSON-over-HTTP transport.
package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imotai/HybridSE/engine"
	"github.com/imotai/HybridSE/row"
	"github.com/imotai/HybridSE/sqlfront"
	"github.com/imotai/HybridSE/storage"
)

// Status is an RPC result code, per spec.md §6.
type Status string

const (
	StatusOK             Status = "Ok"
	StatusBadRequest     Status = "BadRequest"
	StatusTableExists    Status = "TableExists"
	StatusTableNotFound  Status = "TableNotFound"
	StatusTablePutFailed Status = "TablePutFailed"
	StatusSQLError       Status = "SQLError"
)

// tableEntry is one table's registration: its tid and every partition
// shard (keyed by pid) that together hold its rows, per the Glossary's
// "Partition: a storage shard identified by (db, tid, pid)".
type tableEntry struct {
	tid        int64
	name       string
	partitions map[int64]*storage.Partition
}

// representative returns the entry's lowest-pid partition, the shard
// Insert/Query address when a request names only (db, table) — mirroring
// original_source/src/tablet/tablet_server_impl.cc's
// GetTableDefUnLocked, which also resolves a bare (db, tid) lookup to
// `partition.begin()->second`, the smallest pid in its std::map.
func (e *tableEntry) representative() *storage.Partition {
	pids := make([]int64, 0, len(e.partitions))
	for pid := range e.partitions {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return e.partitions[pids[0]]
}

// Server holds the db -> tid -> *tableEntry registry (plus the
// db -> name -> tid index) guarded by one mutex — Go's sync.Mutex
// standing in for spec.md §5's single spinlock-per-registry model —
// and one shared engine.Cache.
type Server struct {
	log *zap.Logger

	mu     sync.Mutex
	tables map[string]map[int64]*tableEntry // db -> tid -> entry
	names  map[string]map[string]int64      // db -> table name -> tid
	cache  *engine.Cache
}

// New creates an empty Server. A nil logger falls back to zap.NewNop().
func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:    log,
		tables: make(map[string]map[int64]*tableEntry),
		names:  make(map[string]map[string]int64),
		cache:  engine.NewCache(),
	}
}

// CreateTable registers one partition per pid in pids for (db, name)
// under tid, per spec.md §6's `CreateTable(tid > 0, pids[], db, table_def)`.
func (s *Server) CreateTable(db string, tid int64, pids []int64, name string, schema *row.Schema) (Status, error) {
	if tid <= 0 {
		return StatusBadRequest, fmt.Errorf("server: create table with invalid tid %d", tid)
	}
	if len(pids) == 0 {
		return StatusBadRequest, fmt.Errorf("server: create table without pid")
	}
	if name == "" || db == "" {
		return StatusBadRequest, fmt.Errorf("server: invalid CreateTable request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[db] == nil {
		s.tables[db] = make(map[int64]*tableEntry)
		s.names[db] = make(map[string]int64)
	}
	if _, exists := s.names[db][name]; exists {
		return StatusTableExists, fmt.Errorf("server: table %q already exists in db %q", name, db)
	}

	entry := &tableEntry{tid: tid, name: name, partitions: make(map[int64]*storage.Partition, len(pids))}
	for _, pid := range pids {
		entry.partitions[pid] = storage.NewPartition(schema)
	}
	s.tables[db][tid] = entry
	s.names[db][name] = tid
	s.log.Info("table created", zap.String("db", db), zap.String("table", name), zap.Int64("tid", tid), zap.Int("pids", len(pids)))
	return StatusOK, nil
}

// Insert appends row bytes to (db, table)'s representative partition.
// key is accepted and logged per spec.md §6's
// `Insert(db, table, key, row_bytes)` but, per
// original_source/src/tablet/tablet_server_impl.cc's Insert (which logs
// `request->key()` without using it to pick a pid), does not itself
// perform partition routing — a single table's rows all land in the
// same representative shard until a hash-based router is specified.
func (s *Server) Insert(db, table, key string, rowBytes []byte) (Status, error) {
	entry, ok := s.lookupByName(db, table)
	if !ok {
		return StatusTableNotFound, fmt.Errorf("server: table %q not found in db %q", table, db)
	}
	if err := entry.representative().Put(rowBytes); err != nil {
		s.log.Warn("insert failed", zap.String("db", db), zap.String("table", table), zap.String("key", key), zap.Error(err))
		return StatusTablePutFailed, fmt.Errorf("server: %w", err)
	}
	return StatusOK, nil
}

// GetTableSchema returns the schema registered for (db, name).
func (s *Server) GetTableSchema(db, name string) (Status, *row.Schema, error) {
	entry, ok := s.lookupByName(db, name)
	if !ok {
		return StatusTableNotFound, nil, fmt.Errorf("server: table %q not found in db %q", name, db)
	}
	return StatusOK, entry.representative().Schema(), nil
}

// Query compiles (or reuses a cached compilation of) sql against db and
// runs it, returning the projected rows and schema. The target table is
// resolved from sql's own FROM clause, per spec.md §6's
// `Query(db, sql) → {...}` — there is no separate table parameter.
func (s *Server) Query(db, sql string, limit int) (Status, [][]byte, *row.Schema, error) {
	reqID := uuid.NewString()
	log := s.log.With(zap.String("request_id", reqID), zap.String("db", db))

	q, err := sqlfront.ParseQuery(sql)
	if err != nil {
		log.Warn("query parse failed", zap.String("sql", sql), zap.Error(err))
		return StatusSQLError, nil, nil, err
	}

	entry, ok := s.lookupByName(db, q.Table)
	if !ok {
		return StatusTableNotFound, nil, nil, fmt.Errorf("server: table %q not found in db %q", q.Table, db)
	}
	partition := entry.representative()

	info, err := s.cache.Get(db, sql, partition.Schema())
	if err != nil {
		log.Warn("query compile failed", zap.String("sql", sql), zap.Error(err))
		return StatusSQLError, nil, nil, err
	}

	session := engine.NewSession(info, partition, s.log)
	rows, err := session.Run(limit)
	if err != nil {
		log.Warn("query run failed", zap.String("sql", sql), zap.Error(err))
		return StatusSQLError, nil, nil, err
	}
	log.Debug("query executed", zap.Int("rows", len(rows)))
	return StatusOK, rows, session.OutputSchema(), nil
}

func (s *Server) lookupByName(db, name string) (*tableEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName, ok := s.names[db]
	if !ok {
		return nil, false
	}
	tid, ok := byName[name]
	if !ok {
		return nil, false
	}
	entry, ok := s.tables[db][tid]
	return entry, ok
}
