package main

import (
	"os"

	"github.com/kotoba-blog/kotoba/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
