package xtable_test

import (
	"fmt"
	"os"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// ExampleMerge 演示多层属性表的优先级合并。
func ExampleMerge() {
	defaults := xtable.FromMap(map[string]string{
		"server.host": "localhost",
		"server.port": "8080",
	})

	file, err := xtable.Parse([]byte("server.port=9090\nserver.timeout=30s\n"))
	if err != nil {
		fmt.Printf("failed to parse properties: %v\n", err)
		return
	}

	override := xtable.New()
	override.Set("server.host", "0.0.0.0")

	// 靠后的层优先级更高
	merged := xtable.Merge(defaults, file, override)

	fmt.Printf("server.host: %s\n", merged.GetOr("server.host", ""))
	fmt.Printf("server.port: %s\n", merged.GetOr("server.port", ""))
	fmt.Printf("server.timeout: %s\n", merged.GetOr("server.timeout", ""))

	// Output:
	// server.host: 0.0.0.0
	// server.port: 9090
	// server.timeout: 30s
}

// ExampleTable_Store 演示将属性表写回 properties 文本。
func ExampleTable_Store() {
	tbl := xtable.New()
	tbl.Set("app.name", "demo")
	tbl.Set("app.debug", "true")

	if err := tbl.Store(os.Stdout, "runtime snapshot"); err != nil {
		fmt.Printf("failed to store properties: %v\n", err)
		return
	}

	// Output:
	// # runtime snapshot
	// app.name = demo
	// app.debug = true
}
