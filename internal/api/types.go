package api

import (
	"encoding/json"
	"strconv"
)

// Year tolerates the backend emitting either a number or a string
// (Semantic Scholar results carry "N/A" for undated papers).
type Year string

func (y *Year) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = Year(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(strconv.Itoa(n))
	return nil
}

// Paper is one search or analysis result. Papers are replaced wholesale on
// every list refresh and identified within a session by their position in
// the current list.
type Paper struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Year        Year     `json:"year"`
	Venue       string   `json:"venue"`
	Abstract    string   `json:"abstract"`
	KeyFindings []string `json:"key_findings"`
	URL         string   `json:"url"`
	PDF         string   `json:"pdf"`
}

// Stage is one step of the fixed extraction pipeline.
type Stage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// Stage status values reported by the backend.
const (
	StagePending = "pending"
	StageRunning = "running"
	StageDone    = "done"
	StageError   = "error"
)

// PipelineStatus is the payload of GET /pipeline/status.
type PipelineStatus struct {
	Running bool    `json:"running"`
	Stages  []Stage `json:"stages"`
	LastRun string  `json:"last_run"`
	Error   string  `json:"error"`
}

// Parsed holds the synthesis markdown broken into its fixed sections.
type Parsed struct {
	Topic        string `json:"topic"`
	Date         string `json:"date"`
	PaperCount   string `json:"paper_count"`
	Model        string `json:"model"`
	Abstract     string `json:"abstract"`
	Introduction string `json:"introduction"`
	Methods      string `json:"methods"`
	Results      string `json:"results"`
	Discussion   string `json:"discussion"`
	Conclusion   string `json:"conclusion"`
	References   string `json:"references"`
}

// SynthesisDocument is the payload of GET /synthesis. GenerationID is the
// concurrency token minted by each run/revise call; a polled document is
// only authoritative for the id the client is currently tracking.
type SynthesisDocument struct {
	Markdown       string            `json:"markdown"`
	Sections       map[string]string `json:"sections"`
	Parsed         Parsed            `json:"parsed"`
	Running        bool              `json:"running"`
	Done           bool              `json:"done"`
	Error          string            `json:"error"`
	LastRun        string            `json:"last_run"`
	GenerationID   string            `json:"generation_id"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
}

// HasContent reports whether the document carries a usable synthesis. The
// backend marks done only when the markdown is substantial; the client
// applies the same floor so a bare error page never counts as a result.
func (d SynthesisDocument) HasContent() bool {
	return len(d.Markdown) > 100 || d.Parsed.Abstract != ""
}

// SimilarPair is one entry of the ranked pairwise similarity list.
type SimilarPair struct {
	PaperAIdx   int     `json:"paper_a_idx"`
	PaperBIdx   int     `json:"paper_b_idx"`
	PaperATitle string  `json:"paper_a_title"`
	PaperBTitle string  `json:"paper_b_title"`
	Similarity  float64 `json:"similarity"`
}

// Similarity is the payload of GET /similarity.
type Similarity struct {
	Pairs       []SimilarPair `json:"pairs"`
	Matrix      [][]float64   `json:"matrix"`
	PaperTitles []string      `json:"paper_titles"`
	KeyThemes   []string      `json:"key_themes"`
}

// Report is one archived synthesis run from GET /reports.
type Report struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Topic  string `json:"topic"`
	Date   string `json:"date"`
	Model  string `json:"model"`
	Papers int    `json:"papers"`
	Words  int    `json:"words"`
	Status string `json:"status"`
	HasBib bool   `json:"has_bib"`
}

// ReportDetail is the payload of GET /reports/{id}.
type ReportDetail struct {
	ID       string            `json:"id"`
	Markdown string            `json:"markdown"`
	Parsed   Parsed            `json:"parsed"`
	Papers   []Paper           `json:"papers"`
	Bib      string            `json:"bib"`
	Sections map[string]string `json:"sections"`
	APA      string            `json:"apa"`
}

// Status is the startup probe payload of GET /status.
type Status struct {
	OK               bool `json:"ok"`
	PapersLoaded     int  `json:"papers_loaded"`
	SynthesisReady   bool `json:"synthesis_ready"`
	PipelineRunning  bool `json:"pipeline_running"`
	SynthesisRunning bool `json:"synthesis_running"`
}

// Ack is the acknowledgement returned by the run/revise endpoints.
type Ack struct {
	OK           bool   `json:"ok"`
	Message      string `json:"message"`
	GenerationID string `json:"generation_id"`
}

// Download is a fetched export artifact ready to be written to disk.
type Download struct {
	Name string
	Data []byte
}
