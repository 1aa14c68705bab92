package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"PressTopics/internal/domain"
)

// writeTopicTable writes one row per (topic, rank) with the term and weight.
func writeTopicTable(w io.Writer, topics [][]domain.TermWeight) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"topic", "rank", "term", "weight"}); err != nil {
		return err
	}
	for t, terms := range topics {
		for r, tw := range terms {
			record := []string{
				strconv.Itoa(t),
				strconv.Itoa(r + 1),
				tw.Term,
				strconv.FormatFloat(tw.Weight, 'g', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeDocumentTable writes one row per article with its topic weights.
func writeDocumentTable(w io.Writer, rows []domain.DocumentTopicRow, k int) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "title", "link"}
	for t := 0; t < k; t++ {
		header = append(header, fmt.Sprintf("topic_%d", t))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{strconv.FormatInt(row.ArticleID, 10), row.Title, row.Link}
		for t := 0; t < k; t++ {
			v := 0.0
			if t < len(row.Weights) {
				v = row.Weights[t]
			}
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
