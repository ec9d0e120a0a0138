package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/logger"
	"github.com/ppiankov/factcheck/internal/model"
)

// Checker defines the interface for fact-checking one input
type Checker interface {
	Check(ctx context.Context, input string) (*model.CheckResult, error)
}

// CheckJob represents one input to fact-check
type CheckJob struct {
	Index   int
	Input   string
	Checker Checker
}

// Execute executes the check job under a fresh request id
func (j *CheckJob) Execute(ctx context.Context) Result {
	reqID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, reqID)

	result, err := j.Checker.Check(ctx, j.Input)
	return &CheckOutcome{
		Index:     j.Index,
		Input:     j.Input,
		RequestID: reqID,
		Result:    result,
		Error:     err,
	}
}

// CheckOutcome represents the result of a check job
type CheckOutcome struct {
	Index     int
	Input     string
	RequestID string
	Result    *model.CheckResult
	Error     error
}

// GetError returns the error from the check outcome
func (r *CheckOutcome) GetError() error {
	return r.Error
}

// BatchProcessor checks multiple inputs concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessInputs checks inputs concurrently. Outcomes are returned in input
// order; inputs not reached before ctx is cancelled carry ctx's error.
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*CheckOutcome {
	if len(inputs) == 0 {
		return []*CheckOutcome{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	collector := NewResultCollector()
	drained := make(chan struct{})
	go func() {
		for r := range pool.Results() {
			collector.Add(r)
		}
		close(drained)
	}()

	for i, input := range inputs {
		if !pool.Submit(&CheckJob{Index: i, Input: input, Checker: b.checker}) {
			break
		}
	}
	pool.Close()
	<-drained

	outcomes := make([]*CheckOutcome, len(inputs))
	for _, r := range collector.Results() {
		o := r.(*CheckOutcome)
		outcomes[o.Index] = o
	}
	for i, o := range outcomes {
		if o == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = &CheckOutcome{Index: i, Input: inputs[i], Error: err}
		}
	}

	return outcomes
}

// ProcessFile reads inputs from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckOutcome, error) {
	inputs, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// ReadClaimsFromFile reads inputs from a file, one per line. Blank lines and
// lines starting with # are skipped, duplicates keep their first position.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadClaims(file)
}

// ReadClaims reads inputs from r, one per line
func ReadClaims(r io.Reader) ([]string, error) {
	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}

// Record is one JSON Lines entry: a CheckResult, or the input with an error
type Record struct {
	*model.CheckResult
	Input string     `json:"input,omitempty"`
	Error *errs.Wire `json:"error,omitempty"`
}

// NewRecord converts an outcome into its JSON Lines entry
func NewRecord(o *CheckOutcome) Record {
	if o.Error != nil || o.Result == nil {
		w := errs.WireFrom(o.Error)
		return Record{Input: o.Input, Error: &w}
	}
	return Record{CheckResult: o.Result}
}

// WriteJSONL writes one record per outcome, in order
func WriteJSONL(w io.Writer, outcomes []*CheckOutcome) error {
	enc := json.NewEncoder(w)
	for _, o := range outcomes {
		if err := enc.Encode(NewRecord(o)); err != nil {
			return fmt.Errorf("write record %d: %w", o.Index, err)
		}
	}
	return nil
}

// Summary counts outcomes by verdict and error code
type Summary struct {
	Total    int
	Verdicts map[model.Verdict]int
	Errors   map[string]int
}

// Summarize tallies outcomes
func Summarize(outcomes []*CheckOutcome) Summary {
	s := Summary{Total: len(outcomes), Verdicts: map[model.Verdict]int{}, Errors: map[string]int{}}
	for _, o := range outcomes {
		if o.Error != nil || o.Result == nil {
			s.Errors[errs.KindOf(o.Error).String()]++
			continue
		}
		s.Verdicts[o.Result.Verdict]++
	}
	return s
}

// ErrorCodes returns the error codes in the summary, sorted
func (s Summary) ErrorCodes() []string {
	codes := make([]string, 0, len(s.Errors))
	for c := range s.Errors {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
