package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/extractor"
	"cv-pipeline-go/internal/types"
)

// 定义提取命令的命令行参数
var (
	extractSaveFile = flag.String("extract-save", "", "保存提取文本到文件")
	ocrLanguages    = flag.String("ocr-langs", "eng+fra", "Tesseract语言，例如 eng+fra")
	ocrDPI          = flag.Int("ocr-dpi", 300, "扫描PDF栅格化DPI")
	nativeThreshold = flag.Int("native-threshold", 200, "PDF原生文本字符数阈值，低于则回退OCR")
)

// extractFromFile 读取本地文件并运行提取器，供各子命令复用
func extractFromFile(ctx context.Context, path string) (*types.ExtractionResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("无法获取文件的绝对路径: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", absPath, err)
	}

	cfg := &config.ExtractorConfig{
		OCRLanguages:        *ocrLanguages,
		OCRDPI:              *ocrDPI,
		NativeTextThreshold: *nativeThreshold,
	}

	ocrEngine, err := extractor.NewGosseractEngine(cfg.OCRLanguages)
	if err != nil {
		return nil, fmt.Errorf("创建OCR引擎失败: %w", err)
	}
	defer ocrEngine.Close()

	ext := extractor.New(cfg, ocrEngine)
	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	return ext.Extract(ctx, data, filepath.Base(absPath), mimeType)
}

// 处理提取文本命令
func handleExtractCommand() {
	if *cvFilePath == "" {
		fmt.Println("错误: 必须使用 -file 参数提供文件路径。")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Printf("开始从文件提取文本: %s\n", *cvFilePath)
	startTime := time.Now()

	result, err := extractFromFile(ctx, *cvFilePath)
	if err != nil {
		fmt.Printf("提取文本失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("提取完成! 耗时: %v\n", time.Since(startTime))

	// 显示提取结果
	fmt.Printf("\n===== 提取的文本 (总计 %d 字符) =====\n", len(result.Text))
	displayText := result.Text
	if *maxLen >= 0 && len(displayText) > *maxLen {
		displayText = displayText[:*maxLen] + "...(已截断，使用 -maxlen 参数显示更多)"
	}
	fmt.Println(displayText)

	// 显示质量与元数据
	fmt.Println("\n===== 元数据 =====")
	fmt.Printf("质量估计: %.3f\n", result.Quality)
	if result.Language != nil {
		fmt.Printf("检测语言: %s\n", *result.Language)
	}
	keys := make([]string, 0, len(result.Meta))
	for k := range result.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, result.Meta[k])
	}

	// 可选保存到文件
	if *extractSaveFile != "" {
		if err := os.WriteFile(*extractSaveFile, []byte(result.Text), 0644); err != nil {
			fmt.Printf("保存文件失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n提取文本已保存到: %s\n", *extractSaveFile)
	}
}
