/*******************************************************************************
 * Copyright (c) 2026 adquery contributors.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/adquery/cache"
	"github.com/wtsi-hgi/adquery/event"
	"github.com/wtsi-hgi/adquery/query"
)

var (
	runOptimizedDir string
	runOutDir       string
	runQueriesFile  string
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a batch of queries against the optimized store.",
	Long: `Execute a batch of queries against the optimized store.

Reads a JSON list of query documents from --queries-file (or a built-in
default query list if omitted), executes each in turn, and writes its
result as q<i>.csv (1 indexed) under --out-dir. A query that fails to
execute is reported and skipped; the rest of the batch still runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		if runOptimizedDir == "" {
			die("--optimized-dir is required")
		}

		if runOutDir == "" {
			die("--out-dir is required")
		}

		if _, err := os.Stat(runOptimizedDir); err != nil {
			die("optimized directory %s not found: %s", runOptimizedDir, err)
		}

		queries, err := loadQueries(runQueriesFile)
		if err != nil {
			die("loading queries: %s", err)
		}

		if err := os.MkdirAll(runOutDir, userGroupPerm); err != nil {
			die("creating out dir: %s", err)
		}

		engine := query.New(runOptimizedDir)

		failures := 0

		for i, q := range queries {
			if err := runOneQuery(engine, q, i+1); err != nil {
				warn("query %d failed: %s", i+1, err)

				failures++

				continue
			}
		}

		if failures > 0 {
			info("%d of %d queries failed", failures, len(queries))
		}

		if allQueriesFailed(failures, len(queries)) {
			die("all %d queries failed", len(queries))
		}
	},
}

// allQueriesFailed reports whether a batch of total queries, failures of
// which errored, should fail the process. spec.md's Run contract exits
// zero as long as any query succeeded; only a completely empty batch of
// successes (every query failed, and there was at least one) is fatal.
func allQueriesFailed(failures, total int) bool {
	return failures > 0 && failures == total
}

// loadQueries reads a JSON document of queries from path. The document
// may be a bare array of query objects, or an object with a "queries" key
// holding that array. When path is empty, the built-in default query list
// is used instead of reading anything.
func loadQueries(path string) ([]query.Query, error) {
	if path == "" {
		return defaultQueries(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}

	var wrapped struct {
		Queries []json.RawMessage `json:"queries"`
	}

	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Queries != nil {
		return parseQueryList(wrapped.Queries)
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("queries file is neither a query array nor a {\"queries\": [...]} object: %w", err)
	}

	return parseQueryList(bare)
}

// defaultQueries is the built-in query list used when --queries-file is
// omitted, one query per canonical rollup shape plus a scan fallback,
// matching the specification's own worked scenarios.
func defaultQueries() []query.Query {
	return []query.Query{
		{
			Select:  []query.SelectItem{query.Col(event.Day), query.Agg(query.SUM, event.BidPrice)},
			From:    "events",
			Where:   []query.Predicate{{Col: event.Type, Op: query.OpEq, Val: event.Impression}},
			GroupBy: []string{event.Day},
		},
		{
			Select:  []query.SelectItem{query.Col(event.Country), query.Agg(query.AVG, event.TotalPrice)},
			From:    "events",
			Where:   []query.Predicate{{Col: event.Type, Op: query.OpEq, Val: event.Purchase}},
			GroupBy: []string{event.Country},
		},
		{
			Select:  []query.SelectItem{query.Col(event.AdvertiserID), query.Col(event.Type), query.Agg(query.COUNT, "*")},
			From:    "events",
			GroupBy: []string{event.AdvertiserID, event.Type},
		},
		{
			Select: []query.SelectItem{query.Col(event.PublisherID), query.Agg(query.SUM, event.BidPrice)},
			From:   "events",
			Where: []query.Predicate{
				{Col: event.Type, Op: query.OpEq, Val: event.Impression},
				{Col: event.Country, Op: query.OpEq, Val: "US"},
			},
			GroupBy: []string{event.PublisherID},
		},
		{
			Select: []query.SelectItem{query.Col(event.Minute), query.Agg(query.SUM, event.BidPrice)},
			From:   "events",
			Where: []query.Predicate{
				{Col: event.Type, Op: query.OpEq, Val: event.Impression},
			},
			GroupBy: []string{event.Minute},
			OrderBy: []query.OrderItem{{Col: event.Minute, Dir: "asc"}},
		},
		{
			Select: []query.SelectItem{query.Col(event.Country), query.Agg(query.SUM, event.BidPrice)},
			From:   "events",
			Where: []query.Predicate{
				{Col: event.Type, Op: query.OpEq, Val: event.Impression},
				{Col: event.Country, Op: query.OpIn, Val: []any{"US"}},
			},
			GroupBy: []string{event.Country},
		},
	}
}

func parseQueryList(raw []json.RawMessage) ([]query.Query, error) {
	queries := make([]query.Query, len(raw))

	for i, r := range raw {
		q, err := query.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}

		queries[i] = q
	}

	return queries, nil
}

// runOneQuery executes q and writes its result to q<index>.csv.
func runOneQuery(engine *query.Engine, q query.Query, index int) error {
	table, elapsed, err := engine.Execute(q)
	if err != nil {
		return err
	}

	outPath := filepath.Join(runOutDir, "q"+strconv.Itoa(index)+".csv")

	if err := writeResultCSV(outPath, table); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	info("query %d: %s rows in %s -> %s", index, humanize.Comma(int64(len(table.Rows))), elapsed.Round(0), outPath)

	return nil
}

// writeResultCSV writes t as a header row followed by one row per result,
// rendering nulls as the empty field.
func writeResultCSV(path string, t *cache.Table) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))

	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}

	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return fmt.Sprint(v)
	}
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOptimizedDir, "optimized-dir", "", "directory holding the optimized store (required)")
	runCmd.Flags().StringVar(&runOutDir, "out-dir", "", "directory to write q<i>.csv results to (required)")
	runCmd.Flags().StringVar(&runQueriesFile, "queries-file", "", "JSON file of query documents (default: built-in query list)")
}
