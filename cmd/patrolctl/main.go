package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/patrolctl/cmd/patrolctl/app"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	ctx := genericapiserver.SetupSignalContext()
	os.Exit(app.Execute(ctx))
}
