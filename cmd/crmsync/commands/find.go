package commands

import (
	"os"
	"sort"
	"strings"

	"crmsync/internal/components/chrono"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/harvest"
	"crmsync/internal/report"
	"crmsync/internal/store"
	"crmsync/pkg/serviceutil"

	"github.com/antzucaro/matchr"
	"github.com/spf13/cobra"
)

var (
	findLimit     *int
	findThreshold *float64
)

func init() {
	findLimit = findCmd.Flags().IntP("limit", "n", 10, "Maximum number of matches to show.")
	findThreshold = findCmd.Flags().Float64("threshold", 0.8, "Minimum similarity (0-1) of a match.")
	rootCmd.AddCommand(findCmd)
}

type match struct {
	record     harvest.Record
	similarity float64
}

// findMatches ranks records by the Jaro-Winkler similarity of their name to `query`.
func findMatches(records []harvest.Record, query string, threshold float64, limit int) []harvest.Record {
	query = strings.ToLower(strings.TrimSpace(query))

	var matches []match
	for _, r := range records {
		similarity := matchr.JaroWinkler(query, strings.ToLower(r.Name), false)
		if strings.Contains(strings.ToLower(r.Contact), query) {
			similarity = 1
		}
		if similarity < threshold {
			continue
		}
		matches = append(matches, match{record: r, similarity: similarity})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	out := make([]harvest.Record, 0, min(len(matches), limit))
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].record)
	}
	return out
}

var findCmd = &cobra.Command{
	Use:   "find <name or contact>",
	Short: "Searches the stored students by approximate name or contact.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		database, err := cfg.openDatabase()
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()
		st := store.NewStore(database, chrono.NewStandardTime(), telemetry.NewSlogAPI(nil))

		records, err := st.ListRecords(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list records", err, func() { database.Close() })
		}
		matches := findMatches(records, strings.Join(args, " "), *findThreshold, *findLimit)
		report.RenderRecords(os.Stdout, matches)
	},
}
