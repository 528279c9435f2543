package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// DownloadStats summarizes one download run.
type DownloadStats struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
}

// Download fetches every shard URL into destDir, naming shards by their
// index: <dataset>-<i>.jsonl.gz. Shards whose compressed or decompressed
// file already exists are skipped, so an interrupted download resumes
// where it left off.
func Download(ctx context.Context, dataset string, urls []string, destDir string, log zerolog.Logger) (DownloadStats, error) {
	var stats DownloadStats

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return stats, fmt.Errorf("creating %s: %w", destDir, err)
	}

	// Downloads stream for hours; no client timeout.
	hc := &http.Client{}

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		gzPath := filepath.Join(destDir, fmt.Sprintf("%s-%d.jsonl.gz", dataset, i))
		jsonlPath := strings.TrimSuffix(gzPath, ".gz")
		if fileExists(gzPath) || fileExists(jsonlPath) {
			stats.Skipped++
			continue
		}

		log.Info().Int("shard", i).Int("total", len(urls)).Msg("downloading shard")
		if err := downloadOne(ctx, hc, u, gzPath); err != nil {
			return stats, fmt.Errorf("downloading shard %d: %w", i, err)
		}
		stats.Downloaded++
	}
	return stats, nil
}

func downloadOne(ctx context.Context, hc *http.Client, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, hostOf(rawURL))
	}

	// Write to a temp name so a crash never leaves a truncated shard
	// that a retry would skip.
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dest))
	_, err = io.Copy(io.MultiWriter(f, bar), resp.Body)
	bar.Finish()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// Decompress gunzips every .jsonl.gz shard in dir in place, removing the
// compressed file afterwards. Already-decompressed shards are skipped.
func Decompress(dir string, log zerolog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", dir, err)
	}

	done := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl.gz") {
			continue
		}
		gzPath := filepath.Join(dir, name)
		jsonlPath := strings.TrimSuffix(gzPath, ".gz")
		if fileExists(jsonlPath) {
			continue
		}

		log.Info().Str("shard", name).Msg("decompressing shard")
		if err := gunzip(gzPath, jsonlPath); err != nil {
			return done, fmt.Errorf("decompressing %s: %w", name, err)
		}
		if err := os.Remove(gzPath); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

func gunzip(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer zr.Close()

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, zr)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "server"
	}
	return u.Host
}
