// Command gomacros-vet checks gomacros directives. It runs standalone or as
//
//	go vet -vettool=$(which gomacros-vet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/sirkon/gomacros/internal/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
