package main

import "github.com/jsvoboda/facegate/cmd"

func main() {
	cmd.Execute()
}
