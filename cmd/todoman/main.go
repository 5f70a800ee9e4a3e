// Command todoman はタスク管理APIサーバーと対話型コンソールを提供する。
//
// 使い方:
//
//	todoman [serve|migrate|healthcheck|console]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/todoman/internal/app"
)

func main() {
	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "todoman: %v\n", err)
		os.Exit(1)
	}
}
