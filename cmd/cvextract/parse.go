package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cv-pipeline-go/internal/parser"
)

// 处理画像解析命令：提取文本后运行结构化解析，输出JSON
func handleParseCommand() {
	if *cvFilePath == "" {
		fmt.Println("错误: 必须使用 -file 参数提供文件路径。")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := extractFromFile(ctx, *cvFilePath)
	if err != nil {
		fmt.Printf("提取文本失败: %v\n", err)
		os.Exit(1)
	}

	profile := parser.Parse(result.Text)

	out, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		fmt.Printf("序列化画像失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("===== 候选人画像 =====")
	fmt.Println(string(out))
}
