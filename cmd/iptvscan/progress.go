package main

import (
	"fmt"
	"io"

	"github.com/nao1215/iptvscan/internal/pipeline"
)

// progressPrinter writes one human readable line per progress report.
type progressPrinter struct {
	out io.Writer
}

// OnProgress implements pipeline.ProgressObserver.
func (p progressPrinter) OnProgress(pr pipeline.Progress) {
	fmt.Fprintf(p.out, "Tested %d/%d links, available: %d, speed: %.1f/s\n",
		pr.Completed, pr.Total, pr.Available, pr.Throughput())
}
