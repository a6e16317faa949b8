package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ernestognw/Teampp/compiler/front"
	"github.com/ernestognw/Teampp/compiler/ir"
	"github.com/ernestognw/Teampp/compiler/parse"
)

func CompileFile(ctx context.Context, name string) (p *ir.Program, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

// Compile translates program text into quadruples in a single pass.
func Compile(ctx context.Context, name string, text []byte) (p *ir.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	f := front.New(ctx)

	err = parse.Parse(ctx, f, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	p, err = f.End()
	if err != nil {
		return nil, errors.Wrap(err, "finish")
	}

	tr.Printw("compiled", "program", p.Name, "quads", len(p.Quads), "consts", len(p.Consts))

	return p, nil
}
