package main

import (
	_ "time/tzdata"

	"sports-pipeline/cmd"
)

func main() {
	cmd.Execute()
}
