package main

import "github.com/mintydevdaz/gigs/internal/cli"

func main() {
	cli.Execute()
}
