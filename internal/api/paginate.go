package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/initBasti/plenty-cli/internal/debug"
	"github.com/initBasti/plenty-cli/internal/metrics"
)

// DefaultMaxPages bounds a single listing in case the remote keeps
// reporting further pages.
const DefaultMaxPages = 1000

// Record is one JSON object of a response. Numbers are kept as json.Number.
type Record = map[string]any

// Page is one parsed page of a listing.
type Page struct {
	Records     []Record
	Page        int
	IsLastPage  bool
	TotalsCount int
}

// Progress is reported after every fetched page.
type Progress struct {
	Page    int
	Records int
	// Total is the record count announced by the remote, zero if unknown.
	Total int
}

// PageOption configures a Paginate call.
type PageOption func(*pageConfig)

type pageConfig struct {
	maxPages int
	progress func(Progress)
	label    string
	metrics  *metrics.Metrics
}

// WithMaxPages overrides DefaultMaxPages.
func WithMaxPages(n int) PageOption {
	return func(c *pageConfig) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithProgress calls fn after each page. The callback does not affect the result.
func WithProgress(fn func(Progress)) PageOption {
	return func(c *pageConfig) {
		c.progress = fn
	}
}

// WithPageMetrics counts pages and records under label.
func WithPageMetrics(m *metrics.Metrics, label string) PageOption {
	return func(c *pageConfig) {
		c.metrics = m
		c.label = label
	}
}

// Paginate fetches every page of req, starting at page 1, and returns the
// records of all pages in order.
func Paginate(ctx context.Context, exec Executor, req Request, opts ...PageOption) ([]Record, error) {
	cfg := pageConfig{maxPages: DefaultMaxPages, label: req.Path}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx = debug.WithCall(ctx, "path", req.Path)
	log := debug.Logger(ctx)
	var all []Record
	page := 1
	for fetched := 0; ; fetched++ {
		if fetched >= cfg.maxPages {
			log.Warn("page limit reached", "max_pages", cfg.maxPages)
			return nil, &PaginationLimitExceededError{Path: req.Path, MaxPages: cfg.maxPages}
		}

		resp, err := exec.Execute(ctx, req.withPage(page))
		if err != nil {
			return nil, fmt.Errorf("fetching page %d of %s: %w", page, req.Path, err)
		}
		if !resp.OK() {
			return nil, &RemoteRejectedError{Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode, Body: resp.Body}
		}
		p, err := ParsePage(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, req.Path, err)
		}

		all = append(all, p.Records...)
		cfg.metrics.Page(cfg.label, len(p.Records))
		log.Debug("fetched page", "page", page, "records", len(p.Records), "last", p.IsLastPage)
		if cfg.progress != nil {
			cfg.progress(Progress{Page: page, Records: len(all), Total: p.TotalsCount})
		}
		if p.IsLastPage {
			return all, nil
		}

		next := page + 1
		if p.Page >= page {
			next = p.Page + 1
		}
		page = next
	}
}

// ParsePage reads a page envelope. A bare JSON array is a complete, final
// page; an object without "entries" is a single record.
func ParsePage(body []byte) (Page, error) {
	if !gjson.ValidBytes(body) {
		return Page{}, errors.New("response is not valid JSON")
	}
	root := gjson.ParseBytes(body)

	switch {
	case root.IsArray():
		records, err := decodeRecords(body)
		if err != nil {
			return Page{}, err
		}
		return Page{Records: records, Page: 1, IsLastPage: true, TotalsCount: len(records)}, nil
	case root.IsObject() && !root.Get("entries").Exists():
		records, err := decodeRecords([]byte("[" + root.Raw + "]"))
		if err != nil {
			return Page{}, err
		}
		return Page{Records: records, Page: 1, IsLastPage: true, TotalsCount: 1}, nil
	case root.IsObject():
	default:
		return Page{}, fmt.Errorf("unexpected response type %s", root.Type)
	}

	entries := root.Get("entries")
	if !entries.IsArray() {
		return Page{}, errors.New("entries is not an array")
	}
	records, err := decodeRecords([]byte(entries.Raw))
	if err != nil {
		return Page{}, err
	}
	p := Page{
		Records:     records,
		Page:        int(root.Get("page").Int()),
		TotalsCount: int(root.Get("totalsCount").Int()),
	}
	switch last := root.Get("isLastPage"); {
	case last.Exists():
		p.IsLastPage = last.Bool()
	case root.Get("lastPageNumber").Exists():
		p.IsLastPage = p.Page >= int(root.Get("lastPageNumber").Int())
	default:
		p.IsLastPage = true
	}
	return p, nil
}

// decodeRecords decodes a JSON array. Elements that are not objects are
// wrapped as {"value": v}.
func decodeRecords(raw []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, obj)
			continue
		}
		records = append(records, Record{"value": item})
	}
	return records, nil
}

// decodeRecord decodes a single JSON object.
func decodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return r, nil
}
