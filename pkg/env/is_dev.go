//go:build dev

package env

import "os"

// -tags dev 编译时将 DEV 设置为 true
func init() {
	os.Setenv("DEV", "true")
}
