package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/bearer-auth-api/internal/tools/common"
	tool "github.com/sandeepkv93/bearer-auth-api/internal/tools/seed"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(common.ExitCode(err))
	}
}
