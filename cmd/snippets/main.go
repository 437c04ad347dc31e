package main

import (
	"context"

	"github.com/mpaf/cdk-snippets/cmd/cli"
	"github.com/mpaf/cdk-snippets/cmd/handler"
	"github.com/mpaf/cdk-snippets/internal/tracing"
	"github.com/mpaf/cdk-snippets/internal/util"
	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx := context.Background()
	tp, shutdown := tracing.InitOtel(ctx)
	defer shutdown()

	if util.InLambda() {
		handler.Listen(tp)
		return
	}

	cli.Invoke(ctx)
}
