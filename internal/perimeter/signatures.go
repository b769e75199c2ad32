package perimeter

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
)

// SignatureSet is a list of lowercase user agent fragments.
type SignatureSet interface {
	// Match returns the first signature contained in ua.
	// ua must already be lowercase.
	Match(ua string) (string, bool)

	// Size returns the number of signatures in the set.
	Size() int
}

// Loader loads a gzipped signature list.
type Loader interface {
	Load(ctx context.Context, path string) (SignatureSet, error)
}

// listSignatureSet keeps signatures in file order, deduplicated.
type listSignatureSet struct {
	seen       map[string]struct{}
	signatures []string
}

// NewSignatureSet creates a set holding the given signatures.
func NewSignatureSet(signatures ...string) SignatureSet {
	s := newListSignatureSet(len(signatures))
	for _, sig := range signatures {
		s.add(sig)
	}
	return s
}

func newListSignatureSet(capacity int) *listSignatureSet {
	return &listSignatureSet{
		seen:       make(map[string]struct{}, capacity),
		signatures: make([]string, 0, capacity),
	}
}

func (s *listSignatureSet) add(sig string) {
	sig = strings.ToLower(strings.TrimSpace(sig))
	if sig == "" {
		return
	}
	if _, ok := s.seen[sig]; ok {
		return
	}
	s.seen[sig] = struct{}{}
	s.signatures = append(s.signatures, sig)
}

// Match implements SignatureSet.
func (s *listSignatureSet) Match(ua string) (string, bool) {
	for _, sig := range s.signatures {
		if strings.Contains(ua, sig) {
			return sig, true
		}
	}
	return "", false
}

// Size implements SignatureSet.
func (s *listSignatureSet) Size() int {
	return len(s.signatures)
}

// readSignatures decompresses r and reads one signature per line.
// Blank lines and lines starting with '#' are skipped.
func readSignatures(ctx context.Context, r io.Reader) (SignatureSet, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	set := newListSignatureSet(256)

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		// Check context cancellation periodically
		if lineCount%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		lineCount++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.add(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read signatures: %w", err)
	}

	return set, nil
}

// WriteSignatures writes signatures to w in the gzipped one-per-line format
// that Loader implementations read.
func WriteSignatures(w io.Writer, signatures []string) error {
	gzipWriter := gzip.NewWriter(w)

	for _, sig := range signatures {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", sig); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to write signature: %w", err)
		}
	}

	return gzipWriter.Close()
}
