package main

import (
	"github.com/easytier/easytier-service/cmd"
)

func main() {
	cmd.Execute()
}
