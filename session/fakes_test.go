package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/auth"
	"github.com/meysamhadeli/dappai/code_analyzer/models"
	"github.com/meysamhadeli/dappai/pipeline"
	providermodels "github.com/meysamhadeli/dappai/providers/models"
	"github.com/meysamhadeli/dappai/repair"
	"github.com/meysamhadeli/dappai/snapshot"
)

type fakeStore struct {
	ensured  int
	messages []string
	reverted []string
	snaps    []snapshot.Snapshot
}

func (s *fakeStore) EnsureRepo(context.Context) error {
	s.ensured++
	return nil
}

func (s *fakeStore) CreateSnapshot(_ context.Context, message string) (*snapshot.Snapshot, error) {
	s.messages = append(s.messages, message)
	snap := snapshot.Snapshot{Hash: fmt.Sprintf("h%d", len(s.snaps)+1), Message: message}
	s.snaps = append(s.snaps, snap)
	return &snap, nil
}

func (s *fakeStore) ListSnapshots(_ context.Context, count int) []snapshot.Snapshot {
	var out []snapshot.Snapshot
	for i := len(s.snaps) - 1; i >= 0 && len(out) < count; i-- {
		out = append(out, s.snaps[i])
	}
	return out
}

func (s *fakeStore) RevertToSnapshot(_ context.Context, hash string) (*snapshot.Snapshot, error) {
	s.reverted = append(s.reverted, hash)
	snap := snapshot.Snapshot{Hash: fmt.Sprintf("h%d", len(s.snaps)+1), Message: "Reverted to: " + hash}
	s.snaps = append(s.snaps, snap)
	return &snap, nil
}

func (s *fakeStore) LatestHash(context.Context) (string, bool) {
	if len(s.snaps) == 0 {
		return "", false
	}
	return s.snaps[len(s.snaps)-1].Hash, true
}

type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests [][]providermodels.Message
}

func (p *fakeProvider) ChatCompletionRequest(_ context.Context, _ string, messages []providermodels.Message) <-chan providermodels.StreamResponse {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, append([]providermodels.Message(nil), messages...))

	var err error
	if len(p.errs) > 0 {
		err, p.errs = p.errs[0], p.errs[1:]
	}
	reply := "[]"
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}

	ch := make(chan providermodels.StreamResponse, 1)
	if err != nil {
		ch <- providermodels.StreamResponse{Err: err}
	} else {
		ch <- providermodels.StreamResponse{Content: reply, Done: true}
	}
	close(ch)
	return ch
}

// ctrlC as an Ask answer makes that prompt return ErrCancelled.
const ctrlC = "\x03"

// fakePrompter replays scripted answers. Running out of Ask answers behaves
// like closed input.
type fakePrompter struct {
	answers  []string
	selects  []int
	confirms []bool
	asked    []string
}

func (p *fakePrompter) Ask(ctx context.Context, question string) (string, error) {
	p.asked = append(p.asked, question)
	if ctx.Err() != nil {
		return "", apperrors.ErrCancelled
	}
	if len(p.answers) == 0 {
		return "", apperrors.ErrInputClosed
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	if answer == ctrlC {
		return "", apperrors.ErrCancelled
	}
	return answer, nil
}

func (p *fakePrompter) Confirm(context.Context, string, bool) (bool, error) {
	if len(p.confirms) == 0 {
		return false, apperrors.ErrCancelled
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *fakePrompter) Select(context.Context, string, []string) (int, error) {
	if len(p.selects) == 0 {
		return -1, apperrors.ErrCancelled
	}
	choice := p.selects[0]
	p.selects = p.selects[1:]
	return choice, nil
}

type fakeRebuilder struct {
	results []pipeline.RebuildResult
	calls   []pipeline.Options
}

func (r *fakeRebuilder) Rebuild(_ context.Context, opts pipeline.Options) pipeline.RebuildResult {
	r.calls = append(r.calls, opts)
	if len(r.results) == 0 {
		return pipeline.RebuildResult{BuildSuccess: true, DeploySuccess: true, CodegenSuccess: true}
	}
	result := r.results[0]
	r.results = r.results[1:]
	return result
}

type fakeRepairer struct {
	result *repair.Result
	err    error
	calls  []repair.Options
}

func (r *fakeRepairer) Run(_ context.Context, opts repair.Options) (*repair.Result, error) {
	r.calls = append(r.calls, opts)
	return r.result, r.err
}

type fakeCredentials struct {
	err error
}

func (c fakeCredentials) Load() (*auth.Credential, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &auth.Credential{Token: "token"}, nil
}

type fakeAnalyzer struct {
	resets *int
}

func (fakeAnalyzer) GetProjectFiles(context.Context) (*models.FullContextData, error) {
	return &models.FullContextData{}, nil
}
func (fakeAnalyzer) ProcessFile(string, []byte) []string { return nil }
func (a fakeAnalyzer) ResetCache() {
	if a.resets != nil {
		*a.resets++
	}
}
func (fakeAnalyzer) BuildContext(context.Context) (string, error) {
	return "File: contracts/src/Counter.sol", nil
}
