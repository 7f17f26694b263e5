package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("doc-ingest cli 0.1.0")
	case "health":
		runHealth()
	case "submit":
		runSubmit(args)
	case "status":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: docingest status <task_id>\n")
			os.Exit(1)
		}
		runStatus(args[0])
	case "batch-status":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: docingest batch-status <batch_id>\n")
			os.Exit(1)
		}
		runBatchStatus(args[0])
	case "wait":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: docingest wait <task_id> [timeout]\n")
			os.Exit(1)
		}
		runWait(args)
	case "delete":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: docingest delete [-kb code] <file...>\n")
			os.Exit(1)
		}
		runDelete(args)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: docingest <command> [args]")
	fmt.Println("  version                    - 显示版本")
	fmt.Println("  health                     - 服务健康检查")
	fmt.Println("  submit [-kb code] <file...> - 提交批次入库")
	fmt.Println("  status <task_id>           - 查询单任务状态")
	fmt.Println("  batch-status <batch_id>    - 查询批次状态")
	fmt.Println("  wait <task_id> [timeout]   - 轮询等待任务终态（默认 10m）")
	fmt.Println("  delete [-kb code] <file...> - 级联删除文件的全部痕迹")
}

func runHealth() {
	health, err := getHealth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "健康检查失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(health))
}

func runSubmit(args []string) {
	kbCode := ""
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-kb" && i+1 < len(args) {
			kbCode = args[i+1]
			i++
			continue
		}
		files = append(files, args[i])
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: docingest submit [-kb code] <file...>\n")
		os.Exit(1)
	}
	// 服务端按绝对路径访问文件
	for i, f := range files {
		abs, err := absPath(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "解析路径失败 %s: %v\n", f, err)
			os.Exit(1)
		}
		files[i] = abs
	}
	out, err := submitBatch(files, kbCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "提交失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func runStatus(taskID string) {
	task, err := getTask(taskID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(task))
}

func runBatchStatus(batchID string) {
	batch, err := getBatch(batchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "查询失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(batch))
}

func runWait(args []string) {
	taskID := args[0]
	timeout := 10 * time.Minute
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "无效的超时时长 %q\n", args[1])
			os.Exit(1)
		}
		timeout = d
	}
	task, err := waitForTask(taskID, 2*time.Second, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if task != nil {
			fmt.Println(prettyJSON(task))
		}
		os.Exit(1)
	}
	fmt.Println(prettyJSON(task))
	if status, _ := task["status"].(string); status == "failed" {
		os.Exit(1)
	}
}

func runDelete(args []string) {
	kbCode := ""
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-kb" && i+1 < len(args) {
			kbCode = args[i+1]
			i++
			continue
		}
		files = append(files, args[i])
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: docingest delete [-kb code] <file...>\n")
		os.Exit(1)
	}
	for i, f := range files {
		abs, err := absPath(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "解析路径失败 %s: %v\n", f, err)
			os.Exit(1)
		}
		files[i] = abs
	}
	out, err := deleteDocuments(files, kbCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "删除失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(out))
}

func absPath(p string) (string, error) {
	return filepath.Abs(p)
}
