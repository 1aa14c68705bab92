package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"PressTopics/internal/domain"
	"PressTopics/internal/infrastructure/parser"
)

// analysisFlags are shared by the crawl and analyze commands. Zero values
// fall back to configuration.
type analysisFlags struct {
	query       string
	stopWords   []string
	nComponents int
	nFeatures   int
	nTopWords   int
	nTopicWords int
	output      string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.query, "query", "", "selection over the articles table")
	flags.StringSliceVar(&f.stopWords, "stop-words", nil, "comma separated stop words")
	flags.IntVar(&f.nComponents, "components", 0, "number of topics")
	flags.IntVar(&f.nFeatures, "features", 0, "vocabulary cap")
	flags.IntVar(&f.nTopWords, "top-words", 0, "number of corpus-wide top terms")
	flags.IntVar(&f.nTopicWords, "topic-words", 0, "terms kept per topic")
	flags.StringVarP(&f.output, "output", "o", "summary", "output format: summary or json")
}

func (f *analysisFlags) apply(p *domain.JobParams) {
	p.Query = f.query
	if len(f.stopWords) > 0 {
		p.StopWords = f.stopWords
	}
	p.NComponents = f.nComponents
	p.NFeatures = f.nFeatures
	p.NTopWords = f.nTopWords
	p.NTopicWords = f.nTopicWords
}

// newCrawlCmd creates the crawl command.
func newCrawlCmd() *cobra.Command {
	var (
		keyword     string
		industry    int
		seedFile    string
		maxArticles int
		analysis    analysisFlags
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Collect articles by keyword or seed list, then analyze",
		Long: `Collect articles either by searching a keyword within an industry
(0 searches every industry) or from a seed file holding one URL per line.
The stored corpus is analyzed once crawling finishes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := domain.JobParams{Keyword: keyword, MaxArticles: maxArticles}
			if cmd.Flags().Changed("industry") {
				params.Industry = &industry
			}
			if seedFile != "" {
				urls, err := parser.ReadSeedFile(seedFile)
				if err != nil {
					return err
				}
				params.SeedURLs = urls
			}
			if len(params.SeedURLs) == 0 && (keyword == "" || params.Industry == nil) {
				return fmt.Errorf("either --seed-file or both --keyword and --industry are required")
			}
			analysis.apply(&params)
			return runJob(cmd, params, analysis.output)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&keyword, "keyword", "k", "", "search keyword")
	flags.IntVarP(&industry, "industry", "i", 0, "industry code (see GET /api/v1/industries)")
	flags.StringVar(&seedFile, "seed-file", "", "file with one article URL per line")
	flags.IntVar(&maxArticles, "max-articles", 0, "maximum articles to visit (0 uses config)")
	analysis.register(cmd)
	return cmd
}

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd() *cobra.Command {
	var analysis analysisFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fit topic models over the stored articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var params domain.JobParams
			analysis.apply(&params)
			return runJob(cmd, params, analysis.output)
		},
	}
	analysis.register(cmd)
	return cmd
}

func runJob(cmd *cobra.Command, params domain.JobParams, output string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	result, err := application.RunJob(cmd.Context(), params)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printSummary(out, result)
}

func printSummary(out io.Writer, result domain.JobResult) error {
	fmt.Fprintln(out, "Top terms:")
	for i, tc := range result.TopTerms {
		fmt.Fprintf(out, "  %2d. %s (%d)\n", i+1, tc.Term, tc.Count)
	}

	for _, model := range []domain.ModelResult{result.Factorization, result.Allocation} {
		fmt.Fprintf(out, "\n%s topics:\n", model.Model.Family)
		for i, topic := range model.Model.Topics {
			fmt.Fprintf(out, "  #%d", i)
			for _, tw := range topic {
				fmt.Fprintf(out, " %s", tw.Term)
			}
			fmt.Fprintln(out)
		}
		for _, art := range model.Artifacts {
			fmt.Fprintf(out, "  %s: %s\n", art.Kind, art.Path)
		}
	}
	return nil
}
