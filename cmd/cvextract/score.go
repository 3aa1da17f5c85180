package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cv-pipeline-go/internal/parser"
	"cv-pipeline-go/internal/scorer"
	"cv-pipeline-go/internal/types"
)

// 定义评分命令的命令行参数
var (
	criteriaFile = flag.String("criteria", "", "岗位要求JSON文件路径 (score命令必填)")
	jobTextFile  = flag.String("job-text", "", "岗位描述文本文件路径 (similarity命令必填)")
)

// 处理兼容性评分命令：画像 vs 岗位要求
func handleScoreCommand() {
	if *cvFilePath == "" || *criteriaFile == "" {
		fmt.Println("错误: score命令需要 -file 和 -criteria 参数。")
		flag.Usage()
		os.Exit(1)
	}

	criteriaData, err := os.ReadFile(*criteriaFile)
	if err != nil {
		fmt.Printf("读取岗位要求文件失败: %v\n", err)
		os.Exit(1)
	}
	var criteria types.RequisitionCriteria
	if err := json.Unmarshal(criteriaData, &criteria); err != nil {
		fmt.Printf("解析岗位要求JSON失败: %v\n", err)
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
	score := scorer.ScoreProfile(profile, &criteria)

	fmt.Println("===== 兼容性评分 =====")
	fmt.Printf("总分:   %.2f\n", score.MatchingScore)
	fmt.Printf("技能:   %.2f\n", score.SkillsScore)
	fmt.Printf("经验:   %.2f\n", score.ExperienceScore)
	fmt.Printf("学历:   %.2f\n", score.EducationScore)
	fmt.Printf("语言:   %.2f\n", score.LanguageScore)

	details, err := json.MarshalIndent(score.ScoringDetails, "", "  ")
	if err == nil {
		fmt.Println("\n===== 评分明细 =====")
		fmt.Println(string(details))
	}
}

// 处理文本相关度命令：简历文本 vs 岗位描述文本
func handleSimilarityCommand() {
	if *cvFilePath == "" || *jobTextFile == "" {
		fmt.Println("错误: similarity命令需要 -file 和 -job-text 参数。")
		flag.Usage()
		os.Exit(1)
	}

	jobData, err := os.ReadFile(*jobTextFile)
	if err != nil {
		fmt.Printf("读取岗位描述文件失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := extractFromFile(ctx, *cvFilePath)
	if err != nil {
		fmt.Printf("提取文本失败: %v\n", err)
		os.Exit(1)
	}

	sim := scorer.SimilarityScore(ctx, string(jobData), result.Text, &result.Quality)

	fmt.Println("===== 文本相关度 =====")
	fmt.Printf("相关度分数: %.2f (范围 0-100)\n", sim)
	fmt.Printf("简历质量:   %.3f\n", result.Quality)
}
