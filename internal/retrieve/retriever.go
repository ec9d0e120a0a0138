// Package retrieve finds the reference facts closest to a claim.
package retrieve

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/model"
)

const op = "retrieve"

// Store is the vector store capability the retriever needs
type Store interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Query(ctx context.Context, vector []float32, k int) ([]model.ScoredFact, error)
}

// Retriever embeds a claim and looks up its K nearest reference facts
type Retriever struct {
	store   Store
	k       int
	timeout time.Duration
}

// New creates a retriever returning at most k facts per claim
func New(store Store, k int, timeout time.Duration) *Retriever {
	if k <= 0 {
		k = 3
	}
	return &Retriever{store: store, k: k, timeout: timeout}
}

// Retrieve returns up to K facts by descending similarity. Fewer facts than
// K in the corpus is not an error.
func (r *Retriever) Retrieve(ctx context.Context, claim string) (model.RetrievedEvidence, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return model.RetrievedEvidence{}, errs.New(errs.KindInvalidInput, op, "empty claim")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vec, err := r.store.Embed(ctx, claim)
	if err != nil {
		return model.RetrievedEvidence{}, errs.FromBackend(op, errs.KindRetrievalUnavailable, err)
	}

	facts, err := r.store.Query(ctx, vec, r.k)
	if err != nil {
		return model.RetrievedEvidence{}, errs.FromBackend(op, errs.KindRetrievalUnavailable, err)
	}
	if len(facts) > r.k {
		facts = facts[:r.k]
	}

	return model.RetrievedEvidence{Query: claim, Facts: facts}, nil
}
