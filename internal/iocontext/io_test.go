package iocontext

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
)

func TestFrom_DefaultsToProcessStreams(t *testing.T) {
	s := From(context.Background())
	if s.In != os.Stdin || s.Out != os.Stdout || s.Err != os.Stderr {
		t.Errorf("From(empty context) = %+v, want process streams", s)
	}
}

func TestWith_Buffered(t *testing.T) {
	streams, out, errOut := Buffered("yes\n")
	ctx := With(context.Background(), streams)

	got := From(ctx)
	_, _ = fmt.Fprint(got.Out, "page 1")
	_, _ = fmt.Fprint(got.Err, "warning")
	in, _ := io.ReadAll(got.In)

	if out.String() != "page 1" || errOut.String() != "warning" || string(in) != "yes\n" {
		t.Errorf("out=%q err=%q in=%q", out, errOut, in)
	}
}
