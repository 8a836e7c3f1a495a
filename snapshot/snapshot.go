package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/runner"
	"go.uber.org/zap"
)

// Snapshot is one committed state of the whole project tree.
type Snapshot struct {
	Hash      string `json:"hash"`
	FullHash  string `json:"full_hash"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

const (
	botName  = "dappai"
	botEmail = "bot@dappai.dev"

	logFormat = "--format=%h|%H|%s|%aI"

	DefaultListCount = 10
)

// DefaultIgnore is written to .gitignore when the project has none.
const DefaultIgnore = `# dependencies
node_modules/
lib/
.pnp
.pnp.js

# build output
out/
cache/
dist/
build/
.next/
broadcast/*/31337/

# secrets
.env
.env.local
.env.*.local
*.pem

# tooling
.dappai/
.DS_Store
`

// Store keeps checkpoints of a project directory in a git repository.
type Store struct {
	root   string
	runner runner.ProcessRunner
	logger *zap.Logger
}

// NewStore creates a Store rooted at the project directory.
func NewStore(root string, r runner.ProcessRunner, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: root, runner: r, logger: logger}
}

// EnsureRepo initializes the repository and a baseline commit when missing.
// Calling it on an initialized repository with commits does nothing.
func (s *Store) EnsureRepo(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(s.root, ".git")); os.IsNotExist(err) {
		if _, err := s.git(ctx, "init"); err != nil {
			return err
		}
		s.logger.Info("initialized snapshot repository", zap.String("root", s.root))
	}

	if err := s.writeDefaultIgnore(); err != nil {
		return err
	}

	if _, ok := s.LatestHash(ctx); ok {
		return nil
	}

	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := s.git(ctx, "commit", "--allow-empty", "-m", "Initial snapshot"); err != nil {
		return err
	}
	s.logger.Info("created baseline snapshot", zap.String("root", s.root))
	return nil
}

// CreateSnapshot stages every working-tree change and commits it. It returns
// nil without committing when nothing changed since the last snapshot.
func (s *Store) CreateSnapshot(ctx context.Context, message string) (*Snapshot, error) {
	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return nil, err
	}

	staged, err := s.hasStagedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !staged {
		s.logger.Debug("snapshot skipped, tree unchanged", zap.String("message", message))
		return nil, nil
	}

	if _, err := s.git(ctx, "commit", "-m", message); err != nil {
		return nil, err
	}

	snap, err := s.head(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot created", zap.String("hash", snap.Hash), zap.String("message", message))
	return snap, nil
}

// ListSnapshots returns up to count snapshots, newest first. Errors yield an
// empty list because history is display-only.
func (s *Store) ListSnapshots(ctx context.Context, count int) []Snapshot {
	if count <= 0 {
		count = DefaultListCount
	}

	out, err := s.git(ctx, "log", fmt.Sprintf("--max-count=%d", count), logFormat)
	if err != nil {
		s.logger.Debug("listing snapshots failed", zap.Error(err))
		return []Snapshot{}
	}
	return parseLog(out)
}

// RevertToSnapshot restores the tree to exactly the content at hash and records
// the restore as a new commit. History is never rewritten.
func (s *Store) RevertToSnapshot(ctx context.Context, hash string) (*Snapshot, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, apperrors.New(apperrors.VersionControl, "no snapshot hash given")
	}

	subject, err := s.git(ctx, "log", "-1", "--format=%s", hash)
	if err != nil {
		return nil, err
	}

	// Files created after the target, committed or not, would survive a path checkout.
	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return nil, err
	}
	added, err := s.git(ctx, "diff", "--cached", "--name-only", "--diff-filter=A", hash)
	if err != nil {
		return nil, err
	}
	for _, rel := range splitLines(added) {
		if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove %s: %w", rel, err)
		}
	}

	if _, err := s.git(ctx, "checkout", hash, "--", "."); err != nil {
		return nil, err
	}
	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return nil, err
	}
	if _, err := s.git(ctx, "commit", "--allow-empty", "-m", "Reverted to: "+strings.TrimSpace(subject)); err != nil {
		return nil, err
	}

	snap, err := s.head(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reverted", zap.String("target", hash), zap.String("hash", snap.Hash))
	return snap, nil
}

// LatestHash returns the short id of HEAD, or false when there are no commits.
func (s *Store) LatestHash(ctx context.Context) (string, bool) {
	out, err := s.git(ctx, "log", "-1", "--format=%h")
	if err != nil {
		return "", false
	}
	hash := strings.TrimSpace(out)
	return hash, hash != ""
}

func (s *Store) head(ctx context.Context) (*Snapshot, error) {
	out, err := s.git(ctx, "log", "-1", logFormat)
	if err != nil {
		return nil, err
	}
	snaps := parseLog(out)
	if len(snaps) == 0 {
		return nil, apperrors.New(apperrors.VersionControl, "could not read the new snapshot")
	}
	return &snaps[0], nil
}

// hasStagedChanges uses diff --cached --quiet: exit 0 is clean, exit 1 is dirty.
func (s *Store) hasStagedChanges(ctx context.Context) (bool, error) {
	res, err := s.runner.Run(ctx, s.command("diff", "--cached", "--quiet"))
	if err != nil {
		return false, apperrors.ErrGit("diff --cached --quiet", err)
	}
	switch res.ExitCode {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, apperrors.ErrGit("diff --cached --quiet", fmt.Errorf("%s", strings.TrimSpace(res.Stderr)))
	}
}

func (s *Store) writeDefaultIgnore() error {
	path := filepath.Join(s.root, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(DefaultIgnore), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}

func (s *Store) command(args ...string) runner.Command {
	return runner.Command{
		Name: "git",
		Args: append([]string{"-c", "user.name=" + botName, "-c", "user.email=" + botEmail}, args...),
		Dir:  s.root,
		Env: []string{
			"GIT_AUTHOR_NAME=" + botName,
			"GIT_AUTHOR_EMAIL=" + botEmail,
			"GIT_COMMITTER_NAME=" + botName,
			"GIT_COMMITTER_EMAIL=" + botEmail,
		},
	}
}

func (s *Store) git(ctx context.Context, args ...string) (string, error) {
	res, err := s.runner.Run(ctx, s.command(args...))
	if err != nil {
		return "", apperrors.ErrGit(args[0], err)
	}
	if !res.Success() {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(res.Stdout)
		}
		return "", apperrors.ErrGit(args[0], fmt.Errorf("exit status %d: %s", res.ExitCode, msg))
	}
	return strings.TrimRight(res.Stdout, "\r\n"), nil
}

func parseLog(out string) []Snapshot {
	snaps := make([]Snapshot, 0)
	for _, line := range splitLines(out) {
		// The subject may itself contain '|', so peel ids from the left
		// and the timestamp from the right.
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 3 {
			continue
		}
		cut := strings.LastIndex(parts[2], "|")
		if cut < 0 {
			continue
		}
		snaps = append(snaps, Snapshot{
			Hash:      parts[0],
			FullHash:  parts[1],
			Message:   parts[2][:cut],
			Timestamp: parts[2][cut+1:],
		})
	}
	return snaps
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
