// Package indexer turns documents into compressed postings. Documents are
// tokenized into an in-memory index keyed by dense integer document IDs,
// which is flushed into immutable segment files whose postings are encoded
// with the configured codec.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/idmap"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/searcher/intersect"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/metrics"
)

// DocMapFile is the name of the document ID map kept next to the segments.
const DocMapFile = "docmap.json"

type Engine struct {
	// mu serialises indexing with flushes so a flush never drops a document
	// added between snapshot and reset.
	mu       sync.Mutex
	memIndex *index.MemoryIndex
	docs     *idmap.Map
	writer   *segment.Writer
	readers  []*segment.Reader
	readerMu sync.RWMutex
	codec    codec.Codec
	cfg      config.IndexerConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records codec operations, indexed documents and flushes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine resolves the configured codec, loads the document map and opens
// every existing segment in cfg.DataDir.
func NewEngine(cfg config.IndexerConfig, opts ...Option) (*Engine, error) {
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("resolving codec: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	docs, err := idmap.Load(filepath.Join(cfg.DataDir, DocMapFile))
	if err != nil {
		return nil, fmt.Errorf("loading document map: %w", err)
	}
	e := &Engine{
		memIndex: index.NewMemoryIndex(),
		docs:     docs,
		cfg:      cfg,
		logger:   slog.Default().With("component", "indexer", "codec", c.Type().String()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.codec = e.instrument(c)
	e.writer = segment.NewWriter(cfg.DataDir, e.codec)

	if err := e.loadExistingSegments(); err != nil {
		return nil, fmt.Errorf("loading existing segments: %w", err)
	}
	return e, nil
}

func (e *Engine) instrument(c codec.Codec) codec.Codec {
	if e.metrics == nil {
		return c
	}
	return metrics.Instrument(c, e.metrics)
}

// IndexDocument assigns name the next document ID (or its existing one) and
// adds the terms of title and body to the memory index. Crossing
// SegmentMaxSize triggers a flush.
func (e *Engine) IndexDocument(name, title, body string) (uint64, error) {
	terms := tokenizer.Terms(title + " " + body)

	e.mu.Lock()
	defer e.mu.Unlock()

	docID := e.docs.ID(name)
	e.memIndex.Add(docID, terms)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.logger.Debug("document indexed in memory",
		"doc", name,
		"doc_id", docID,
		"terms", len(terms),
		"mem_size", e.memIndex.Size(),
	)
	if e.memIndex.Size() >= e.cfg.SegmentMaxSize {
		e.logger.Info("memory index reached max size, flushing to disk",
			"size", e.memIndex.Size(),
			"threshold", e.cfg.SegmentMaxSize,
		)
		if err := e.flushLocked(); err != nil {
			return docID, fmt.Errorf("flushing memory index: %w", err)
		}
	}
	return docID, nil
}

// Flush writes the memory index to a new segment. An empty index is a no-op.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked()
}

func (e *Engine) flushLocked() error {
	snapshot := e.memIndex.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	// The map goes first: a segment must never reference IDs that were not
	// persisted.
	if err := e.docs.Save(filepath.Join(e.cfg.DataDir, DocMapFile)); err != nil {
		e.recordFlush("error")
		return fmt.Errorf("saving document map: %w", err)
	}
	segmentName, err := e.writer.Write(snapshot, e.memIndex.DocCount())
	if err != nil {
		e.recordFlush("error")
		return fmt.Errorf("writing segment: %w", err)
	}

	reader, err := segment.OpenReader(filepath.Join(e.cfg.DataDir, segmentName), e.readerOptions()...)
	if err != nil {
		e.recordFlush("error")
		return fmt.Errorf("opening new segment for reading: %w", err)
	}
	e.readerMu.Lock()
	e.readers = append(e.readers, reader)
	active := len(e.readers)
	e.readerMu.Unlock()
	e.memIndex.Reset()

	e.recordFlush("ok")
	if e.metrics != nil {
		e.metrics.SegmentTerms.Set(float64(reader.Terms()))
	}
	e.logger.Info("segment flushed",
		"segment", segmentName,
		"terms", reader.Terms(),
		"docs", reader.DocCount(),
		"active_segments", active,
	)
	return nil
}

func (e *Engine) recordFlush(status string) {
	if e.metrics != nil {
		e.metrics.IndexFlushesTotal.WithLabelValues(status).Inc()
	}
}

func (e *Engine) readerOptions() []segment.Option {
	if e.metrics == nil {
		return nil
	}
	return []segment.Option{segment.WithCodecWrapper(e.instrument)}
}

// Search returns the ascending document IDs containing term, merged across
// the memory index and every segment. Segments that fail to decode are
// logged and skipped.
func (e *Engine) Search(term string) ([]uint64, error) {
	tokens := tokenizer.Tokenize(term)
	if len(tokens) == 0 {
		return nil, nil
	}
	normalized := tokens[0].Term

	lists := [][]uint64{e.memIndex.Search(normalized)}
	e.readerMu.RLock()
	readers := make([]*segment.Reader, len(e.readers))
	copy(readers, e.readers)
	e.readerMu.RUnlock()

	for _, reader := range readers {
		postings, err := reader.Search(normalized)
		if err != nil {
			e.logger.Error("segment search failed",
				"segment", filepath.Base(reader.Path()),
				"term", normalized,
				"error", err,
			)
			continue
		}
		lists = append(lists, postings)
	}
	return intersect.Union(lists...), nil
}

// SearchAll returns the documents containing every term of query.
func (e *Engine) SearchAll(query string) ([]uint64, error) {
	terms := tokenizer.Terms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	lists := make([][]uint64, 0, len(terms))
	for _, term := range terms {
		postings, err := e.Search(term)
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			return nil, nil
		}
		lists = append(lists, postings)
	}
	return intersect.IntersectAll(lists...), nil
}

// DocName maps a document ID back to the name it was indexed under.
func (e *Engine) DocName(id uint64) (string, bool) {
	return e.docs.Name(id)
}

func (e *Engine) Codec() codec.Codec {
	return e.codec
}

func (e *Engine) Segments() int {
	e.readerMu.RLock()
	defer e.readerMu.RUnlock()
	return len(e.readers)
}

// StartFlushLoop flushes every FlushInterval until ctx is cancelled, then
// flushes once more.
func (e *Engine) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("flush loop stopping, performing final flush")
				if err := e.Flush(); err != nil {
					e.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				if e.memIndex.DocCount() > 0 {
					if err := e.Flush(); err != nil {
						e.logger.Error("periodic flush failed", "error", err)
					}
				}
			}
		}
	}()
}

// Close flushes pending documents and closes every segment reader.
func (e *Engine) Close() error {
	flushErr := e.Flush()
	if flushErr != nil {
		e.logger.Error("final flush on close failed", "error", flushErr)
	}
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	for _, reader := range e.readers {
		if err := reader.Close(); err != nil {
			e.logger.Error("closing segment reader", "error", err)
		}
	}
	e.readers = nil
	return flushErr
}

func (e *Engine) loadExistingSegments() error {
	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading data directory: %w", err)
	}
	segFiles := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), segment.FileExt) {
			segFiles = append(segFiles, entry.Name())
		}
	}
	sort.Strings(segFiles)

	for _, name := range segFiles {
		path := filepath.Join(e.cfg.DataDir, name)
		reader, err := segment.OpenReader(path, e.readerOptions()...)
		if err != nil {
			e.logger.Error("failed to open segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		e.readers = append(e.readers, reader)
		e.logger.Info("loaded existing segment",
			"segment", name,
			"terms", reader.Terms(),
			"docs", reader.DocCount(),
			"segment_codec", reader.Codec().Type().String(),
		)
	}
	e.logger.Info("segment recovery complete",
		"segments_loaded", len(e.readers),
		"documents", e.docs.Len(),
	)
	return nil
}
