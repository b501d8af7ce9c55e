package main

import "github.com/vietddude/catshelter/internal/cli"

func main() {
	cli.Execute()
}
