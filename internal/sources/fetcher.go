package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dvloznov/spendlens/internal/extract"
)

// RemoteFactory opens the remote store on first use.
type RemoteFactory func(ctx context.Context) (RemoteStore, error)

// Fetcher loads statement files from disk or Cloud Storage. The GCS client
// is created only when a gs:// URI is first seen.
type Fetcher struct {
	factory RemoteFactory

	mu     sync.Mutex
	remote RemoteStore
}

// NewFetcher creates a fetcher. factory may be nil, in which case gs://
// URIs fail.
func NewFetcher(factory RemoteFactory) *Fetcher {
	return &Fetcher{factory: factory}
}

// GCSFactory returns a RemoteFactory building a GCSStore.
func GCSFactory(credentialsFile string) RemoteFactory {
	return func(ctx context.Context) (RemoteStore, error) {
		return NewGCSStore(ctx, credentialsFile)
	}
}

// Fetch returns the bytes of a local file or gs:// object.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if !IsGCS(uri) {
		data, err := os.ReadFile(uri)
		if err != nil {
			return nil, fmt.Errorf("Fetch: %w", err)
		}
		return data, nil
	}

	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	if object == "" {
		return nil, fmt.Errorf("Fetch: invalid GCS URI (no object path): %s", uri)
	}
	remote, err := f.remoteStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	data, err := remote.Download(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %s: %w", uri, err)
	}
	return data, nil
}

// Name implements the pipeline's SourceFetcher.
func (f *Fetcher) Name(uri string) string {
	return Name(uri)
}

// Expand turns command-line arguments into file URIs. Globs are expanded,
// directories are walked, and gs:// arguments ending in "/" or "*" list
// the prefix. Only files with a supported extension are kept from
// directories and listings; explicit paths are passed through so that
// unsupported files are reported per file.
func (f *Fetcher) Expand(ctx context.Context, args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(uri string) {
		if !seen[uri] {
			seen[uri] = true
			out = append(out, uri)
		}
	}

	for _, arg := range args {
		switch {
		case IsGCS(arg):
			uris, err := f.expandGCS(ctx, arg)
			if err != nil {
				return nil, err
			}
			for _, u := range uris {
				add(u)
			}

		case strings.ContainsAny(arg, "*?["):
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("Expand: %s: %w", arg, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if supported(m) {
					add(m)
				}
			}

		default:
			info, err := os.Stat(arg)
			if err != nil || !info.IsDir() {
				// An unreadable path fails on its own when fetched.
				add(arg)
				continue
			}
			err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && supported(p) {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("Expand: walk %s: %w", arg, err)
			}
		}
	}
	return out, nil
}

func (f *Fetcher) expandGCS(ctx context.Context, arg string) ([]string, error) {
	bucket, object, err := ParseGCSURI(arg)
	if err != nil {
		return nil, fmt.Errorf("Expand: %w", err)
	}
	if object != "" && !strings.HasSuffix(object, "/") && !strings.ContainsAny(object, "*?[") {
		return []string{arg}, nil
	}

	prefix, pattern := object, ""
	if i := strings.IndexAny(object, "*?["); i >= 0 {
		prefix, pattern = object[:i], object
	}

	remote, err := f.remoteStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("Expand: %w", err)
	}
	names, err := remote.List(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("Expand: %w", err)
	}

	var out []string
	for _, name := range names {
		if pattern != "" {
			if ok, _ := path.Match(pattern, name); !ok {
				continue
			}
		}
		if supported(name) {
			out = append(out, GCSURI(bucket, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Upload stores data at a gs:// URI.
func (f *Fetcher) Upload(ctx context.Context, uri string, data []byte) error {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return fmt.Errorf("Upload: %w", err)
	}
	remote, err := f.remoteStore(ctx)
	if err != nil {
		return fmt.Errorf("Upload: %w", err)
	}
	return remote.Upload(ctx, bucket, object, data)
}

// Close releases the remote store if one was opened.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remote == nil {
		return nil
	}
	err := f.remote.Close()
	f.remote = nil
	return err
}

func (f *Fetcher) remoteStore(ctx context.Context) (RemoteStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remote != nil {
		return f.remote, nil
	}
	if f.factory == nil {
		return nil, fmt.Errorf("cloud storage is not configured")
	}
	remote, err := f.factory(ctx)
	if err != nil {
		return nil, err
	}
	f.remote = remote
	return remote, nil
}

func supported(name string) bool {
	_, err := extract.DetectKind(name)
	return err == nil
}
