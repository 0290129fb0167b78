package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/initBasti/plenty-cli/internal/api"
)

// Formatter renders command results to the streams of one invocation.
type Formatter struct {
	ctx       context.Context
	out       io.Writer
	errOut    io.Writer
	tabWriter *tabwriter.Writer
}

// NewFormatter returns a Formatter reading its options from ctx.
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:       ctx,
		out:       out,
		errOut:    errOut,
		tabWriter: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data according to the mode, query and template in the
// context. In text mode record listings become a table; a query or any
// other value falls back to JSON.
func (f *Formatter) Output(data any) error {
	opts := OptionsFrom(f.ctx)
	if opts.Template != nil {
		filtered, err := ApplyQuery(data, opts.Query)
		if err != nil {
			return err
		}
		return ExecuteTemplate(f.out, opts.Template, filtered)
	}

	switch {
	case opts.Mode == JSONL:
		return WriteJSONLines(f.out, data, opts.Query)
	case opts.Mode == JSON, opts.Query != "":
		return WriteJSONFiltered(f.out, data, opts.Query, opts.Compact)
	}
	switch v := data.(type) {
	case *api.Table:
		return WriteTable(f.out, v)
	case []api.Record:
		if len(v) == 0 {
			f.Empty("No records found")
			return nil
		}
		normalized, err := api.Normalize(v, api.FormatTabular)
		if err != nil {
			return err
		}
		return WriteTable(f.out, normalized.(*api.Table))
	case api.Record:
		return WriteRecord(f.out, v)
	default:
		return WriteJSON(f.out, data)
	}
}

// StartTable writes the header row of a hand-built table. It reports false
// and writes nothing when the output is JSON, leaving the caller to emit data.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	f.Row(headers...)
	return true
}

// Row writes one tab separated table row.
func (f *Formatter) Row(columns ...string) {
	_, _ = io.WriteString(f.tabWriter, strings.Join(columns, "\t")+"\n")
}

// EndTable aligns and flushes the rows written so far.
func (f *Formatter) EndTable() error {
	return f.tabWriter.Flush()
}

// Empty tells the user on stderr that there is nothing to show.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
