package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Document is one source document before splitting.
type Document struct {
	Text     string
	Metadata map[string]interface{}
}

// LoadCSVNews reads a scraped-news CSV with title, time, url and content
// columns and returns one document per row.
func LoadCSVNews(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open news csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read news csv header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "time", "url", "content"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("news csv missing column %q", required)
		}
	}

	var docs []Document
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read news csv: %w", err)
		}
		get := func(name string) string {
			if i := col[name]; i < len(row) {
				return row[i]
			}
			return ""
		}
		content := get("content")
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, Document{
			Text: content,
			Metadata: map[string]interface{}{
				"title": get("title"),
				"time":  get("time"),
				"url":   get("url"),
			},
		})
	}
	return docs, nil
}

// LoadTextDir reads extracted report text from dir (*.txt, *.md). Form feeds
// mark page boundaries; each page becomes its own document with 1-based page
// metadata, mirroring how the PDF corpus was extracted.
func LoadTextDir(dir string) ([]Document, error) {
	var paths []string
	for _, pattern := range []string{"*.txt", "*.md"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no report files under %s", dir)
	}
	sort.Strings(paths)

	var docs []Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", path, err)
		}
		source := filepath.Base(path)
		for i, page := range strings.Split(string(data), "\f") {
			if strings.TrimSpace(page) == "" {
				continue
			}
			docs = append(docs, Document{
				Text: page,
				Metadata: map[string]interface{}{
					"source": source,
					"page":   i + 1,
				},
			})
		}
	}
	return docs, nil
}

// FetchNewsURLs reads one URL per line from path and extracts each article's
// readable text. Unreachable or unreadable articles are skipped with the
// error reported through errs; a partially fetched corpus is still usable.
func FetchNewsURLs(path string, timeout time.Duration, errs func(url string, err error)) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var docs []Document
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		article, err := readability.FromURL(url, timeout)
		if err != nil {
			if errs != nil {
				errs(url, err)
			}
			continue
		}
		published := ""
		if article.PublishedTime != nil {
			published = article.PublishedTime.Format(time.RFC3339)
		}
		docs = append(docs, Document{
			Text: article.TextContent,
			Metadata: map[string]interface{}{
				"title": article.Title,
				"time":  published,
				"url":   url,
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return docs, nil
}
