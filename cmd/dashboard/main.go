package main

import (
	"flag"
	"log"

	"github.com/jhaugland01/ReliabilitySim/internal/dashboard"
)

func main() {
	out := flag.String("out", "build", "directory for rendered dashboards")
	flag.Parse()
	if err := dashboard.Render(*out); err != nil {
		log.Fatal(err)
	}
}
