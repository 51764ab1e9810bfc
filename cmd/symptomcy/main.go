package main

import "github.com/terraincognita07/symptomcy/internal/cli"

func main() {
	cli.Execute()
}
