// Package iocontext carries the standard streams of a command invocation on
// its context so commands and tests can swap them.
package iocontext

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
)

// Streams are the reader and writers a command talks to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Std returns the process streams.
func Std() *Streams {
	return &Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Buffered returns streams reading input and writing into the returned
// buffers.
func Buffered(input string) (s *Streams, out, errOut *bytes.Buffer) {
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	return &Streams{In: strings.NewReader(input), Out: out, Err: errOut}, out, errOut
}

type streamsKey struct{}

// With stores s on ctx.
func With(ctx context.Context, s *Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

// From returns the streams stored on ctx, or the process streams.
func From(ctx context.Context) *Streams {
	if s, ok := ctx.Value(streamsKey{}).(*Streams); ok && s != nil {
		return s
	}
	return Std()
}
