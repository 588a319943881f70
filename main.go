package main

import "github.com/iksnae/deskcorder/cmd"

func main() {
	cmd.Execute()
}
