// Package main contains the cli implementation of the tablet server.
// It uses the cobra package for cli tool implementation.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/imotai/HybridSE/server"
)

type serveFlags struct {
	config   string
	listen   string
	logLevel string
}

type queryFlags struct {
	addr  string
	db    string
	limit int
}

type createTableFlags struct {
	addr    string
	db      string
	tid     int64
	pids    []int64
	columns []string
}

type insertFlags struct {
	addr  string
	db    string
	key   string
	row   string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "tablet",
		Short: "HybridSE tablet server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(createTableCmd())
	rootCmd.AddCommand(insertCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tablet server's JSON-over-HTTP endpoint",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVarP(&flags.listen, "listen", "l", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	return cmd
}

func runServe(flags *serveFlags) error {
	cfg, err := loadConfig(flags.config)
	if err != nil {
		return err
	}
	if flags.listen != "" {
		cfg.Listen = flags.listen
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	srv := server.New(log)
	httpSrv := server.NewHTTPServer(srv, log)

	log.Info("tablet server starting", zap.String("listen", cfg.Listen))
	return http.ListenAndServe(cfg.Listen, httpSrv.Handler())
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

func queryCmd() *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Send a query RPC to a running tablet server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runQuery(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "http://127.0.0.1:8864", "Tablet server address")
	cmd.Flags().StringVar(&flags.db, "db", "default", "Database name")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Row limit (0 means unlimited)")

	return cmd
}

func runQuery(sql string, flags *queryFlags) error {
	body, err := json.Marshal(map[string]any{
		"db":    flags.db,
		"sql":   sql,
		"limit": flags.limit,
	})
	if err != nil {
		return fmt.Errorf("failed to encode query request: %w", err)
	}
	return postAndPrint(flags.addr+"/v1/query", body)
}

func createTableCmd() *cobra.Command {
	flags := &createTableFlags{}
	cmd := &cobra.Command{
		Use:   "create-table <name>",
		Short: "Create a table and its partitions on a running tablet server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCreateTable(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "http://127.0.0.1:8864", "Tablet server address")
	cmd.Flags().StringVar(&flags.db, "db", "default", "Database name")
	cmd.Flags().Int64Var(&flags.tid, "tid", 0, "Table id (required, > 0)")
	cmd.Flags().Int64SliceVar(&flags.pids, "pid", []int64{0}, "Partition id (repeatable)")
	cmd.Flags().StringSliceVar(&flags.columns, "column", nil, "Column as name:type (repeatable); type one of bool,i16,i32,i64,f32,f64,timestamp,date,varchar")

	return cmd
}

func runCreateTable(name string, flags *createTableFlags) error {
	if flags.tid <= 0 {
		return fmt.Errorf("--tid is required and must be > 0")
	}
	if len(flags.columns) == 0 {
		return fmt.Errorf("at least one --column is required")
	}

	columns := make([]map[string]any, 0, len(flags.columns))
	for _, c := range flags.columns {
		parts := strings.SplitN(c, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --column %q, expected name:type", c)
		}
		columns = append(columns, map[string]any{"Name": parts[0], "Type": columnTypeCode(parts[1])})
	}

	body, err := json.Marshal(map[string]any{
		"db":      flags.db,
		"tid":     flags.tid,
		"pids":    flags.pids,
		"name":    name,
		"columns": columns,
	})
	if err != nil {
		return fmt.Errorf("failed to encode create-table request: %w", err)
	}
	return postAndPrint(flags.addr+"/v1/createTable", body)
}

// columnTypeCode maps a %%fun-style type name to row.ColumnType's wire
// encoding (its iota order: bool, i16, i32, i64, f32, f64, timestamp,
// date, varchar).
func columnTypeCode(name string) int {
	switch strings.ToLower(name) {
	case "bool":
		return 0
	case "i16":
		return 1
	case "i32":
		return 2
	case "i64":
		return 3
	case "f32":
		return 4
	case "f64":
		return 5
	case "timestamp":
		return 6
	case "date":
		return 7
	default:
		return 8 // varchar
	}
}

func insertCmd() *cobra.Command {
	flags := &insertFlags{}
	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Insert a base64-encoded row into a table on a running tablet server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInsert(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "http://127.0.0.1:8864", "Tablet server address")
	cmd.Flags().StringVar(&flags.db, "db", "default", "Database name")
	cmd.Flags().StringVar(&flags.key, "key", "", "Partition routing key")
	cmd.Flags().StringVar(&flags.row, "row", "", "Base64-encoded packed row bytes (required)")

	return cmd
}

func runInsert(table string, flags *insertFlags) error {
	if flags.row == "" {
		return fmt.Errorf("--row is required")
	}
	body, err := json.Marshal(map[string]any{
		"db":    flags.db,
		"table": table,
		"key":   flags.key,
		"row":   flags.row,
	})
	if err != nil {
		return fmt.Errorf("failed to encode insert request: %w", err)
	}
	return postAndPrint(flags.addr+"/v1/insert", body)
}

func postAndPrint(url string, body []byte) error {
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach tablet server: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	fmt.Println(string(pretty))
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("tablet server returned %s", strconv.Itoa(resp.StatusCode))
	}
	return nil
}
