package main

import "github.com/mvp-joe/docwatch/internal/cli"

func main() {
	cli.Execute()
}
