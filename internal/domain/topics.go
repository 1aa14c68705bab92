package domain

// ModelFamily tags the two independent topic models.
type ModelFamily string

const (
	FamilyFactorization ModelFamily = "factorization"
	FamilyAllocation    ModelFamily = "allocation"
)

// TermWeight is one term of a topic with its loading.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TermCount is a corpus-wide term frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TopicModel holds the top terms of every topic of one fitted model.
type TopicModel struct {
	Family ModelFamily    `json:"family"`
	Topics [][]TermWeight `json:"topics"`
}

// DocumentTopicRow is one article's weights over the topics of a model.
type DocumentTopicRow struct {
	ArticleID int64     `json:"article_id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Weights   []float64 `json:"topic_weights"`
}

// DominantTopic returns the index of the highest weight, or -1 when empty.
func (r DocumentTopicRow) DominantTopic() int {
	best := -1
	for i, w := range r.Weights {
		if best < 0 || w > r.Weights[best] {
			best = i
		}
	}
	return best
}

// Artifact references an exported file.
type Artifact struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Path string `json:"-"`
}

// ModelResult is everything produced for one model family.
type ModelResult struct {
	Model     TopicModel         `json:"model"`
	Documents []DocumentTopicRow `json:"documents"`
	Artifacts []Artifact         `json:"artifacts,omitempty"`
}

// JobResult is the immutable output of a completed job.
type JobResult struct {
	TopTerms      []TermCount `json:"top_terms"`
	Factorization ModelResult `json:"factorization"`
	Allocation    ModelResult `json:"allocation"`
}
