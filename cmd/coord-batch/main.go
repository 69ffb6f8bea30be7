// coord-batch：离线批量坐标换算工具，按行读取 "lng,lat" 并输出 csv/json/yaml
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
