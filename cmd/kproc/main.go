package main

import "github.com/viant/kproc/cmd/kproc/cmd"

func main() {
	cmd.Execute()
}
