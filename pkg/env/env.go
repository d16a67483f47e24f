package env

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 依次尝试的 .env 路径, 找到第一个即停止
var candidates = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载 .env 文件; 找不到文件不是错误, 环境变量可以直接由进程传入
func Load(paths ...string) string {
	if len(paths) == 0 {
		paths = candidates
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			full, err := filepath.Abs(path)
			if err != nil {
				return path
			}
			return full
		}
	}
	return ""
}

func String(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func MustString(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("env %s must not be empty", key))
	}
	return value
}

func Int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func Int64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return i
}

func Bool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true"
}

// Duration 解析 time.ParseDuration 格式, 例如 12h
func Duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func IsDev() bool {
	return os.Getenv("DEV") == "true"
}

func IsProd() bool {
	return !IsDev()
}

func IsDebug() bool {
	return Bool("DEBUG", false)
}

// DirPath 将相对路径转换为相对于 BASE_DIR 的绝对路径, 绝对路径原样返回
func DirPath(key string, defaultValue string) string {
	dir := tildeExpand(String(key, defaultValue))
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(BaseDir(), dir)
}

func BaseDir() string {
	return tildeExpand(String("BASE_DIR", "."))
}

// 展开 ~(tilde) 字符，例如 ~/log 展开为 $HOME/log
func tildeExpand(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	usr, err := user.Current()
	if err != nil {
		return p
	}
	if p == "~" {
		return usr.HomeDir
	}
	return filepath.Join(usr.HomeDir, p[2:])
}
