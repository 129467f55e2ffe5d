package collection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFolder is the scan root used when none is configured.
	DefaultFolder = "storage/app/postman"

	// DefaultPattern matches collection files by base name.
	DefaultPattern = "*.json"
)

// ScannerConfig holds configuration for a Scanner.
type ScannerConfig struct {
	Fs      afero.Fs     // Filesystem (default: OS filesystem)
	Root    string       // Folder to scan (default: DefaultFolder)
	Pattern string       // Base name glob (default: DefaultPattern)
	Logger  hclog.Logger // Logger (optional)
}

// Scanner discovers local collections under a root folder.
type Scanner struct {
	fs      afero.Fs
	root    string
	pattern string
	logger  hclog.Logger
}

// ScanResult is the outcome of a single scan.
type ScanResult struct {
	// Collections holds every document that passed the schema check, in
	// walk order.
	Collections []*Collection

	// Index maps declared identifiers to source files.
	Index SourceFileIndex

	// FilesFound is the number of files that matched the pattern, valid or
	// not.
	FilesFound int
}

// NewScanner creates a new Scanner.
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Root == "" {
		cfg.Root = DefaultFolder
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", cfg.Pattern, err)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve folder %q: %w", cfg.Root, err)
	}

	return &Scanner{
		fs:      cfg.Fs,
		root:    root,
		pattern: cfg.Pattern,
		logger:  cfg.Logger.Named("scanner"),
	}, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string {
	return s.root
}

// Fs returns the filesystem the scanner reads from.
func (s *Scanner) Fs() afero.Fs {
	return s.fs
}

// Scan walks the root and returns every valid collection found. A missing
// root yields an empty result. Files that cannot be read or parsed, and
// documents with another schema, are skipped without error.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	files, err := s.findFiles()
	if err != nil {
		return nil, err
	}

	s.logger.Info("JSON file(s) found", "count", len(files), "folder", s.root)

	// Each goroutine owns one slot, so no locking is needed.
	loaded := make([]*Collection, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			c, err := s.load(path)
			if err != nil {
				s.logger.Debug("skipping file", "path", path, "reason", err)
				return nil
			}
			loaded[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	result := &ScanResult{
		Collections: make([]*Collection, 0, len(files)),
		Index:       make(SourceFileIndex),
		FilesFound:  len(files),
	}
	for _, c := range loaded {
		if c == nil {
			continue
		}
		result.Collections = append(result.Collections, c)
		result.Index.add(c)
	}

	s.logger.Info("collection(s) found", "count", len(result.Collections), "folder", s.root)

	return result, nil
}

// findFiles returns the paths under root whose base name matches the
// pattern, in lexical walk order.
func (s *Scanner) findFiles() ([]string, error) {
	if _, err := s.fs.Stat(s.root); err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("source folder does not exist", "folder", s.root)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access source folder: %w", err)
	}

	var files []string
	err := afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Warn("error accessing path", "path", path, "error", err)
			return nil // Skip paths we can't access
		}
		if info.IsDir() {
			return nil
		}

		if ok, _ := filepath.Match(s.pattern, info.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source folder: %w", err)
	}

	return files, nil
}

func (s *Scanner) load(path string) (*Collection, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}

	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.Path = path

	return c, nil
}
