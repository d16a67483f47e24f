package log

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// 终端输出时不重复打印的字段
var skipFields = map[string]bool{
	"time": true, "level": true, "message": true, "file": true,
	"func": true, "module": true, "reqid": true, "error": true,
}

type terminalHook struct {
	out io.Writer
}

// NewTerminalHook 创建一个彩色终端日志钩子
// logrus.AddHook(log.NewTerminalHook(os.Stdout))
func NewTerminalHook(w io.Writer) *terminalHook {
	return &terminalHook{out: w}
}

func (h *terminalHook) Fire(entry *logrus.Entry) error {
	raw, err := entry.Bytes()
	if err != nil {
		return err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		_, err = h.out.Write(raw)
		return err
	}
	_, err = io.WriteString(h.out, formatLine(data))
	return err
}

func (h *terminalHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func formatLine(data map[string]any) string {
	R := color.RedString
	M := color.MagentaString
	C := color.CyanString

	level, _ := data["level"].(string)
	lv, err := logrus.ParseLevel(level)
	isError := err == nil && lv <= logrus.WarnLevel

	list := make([]string, 0, 8)
	if isError {
		list = append(list, R("%-7s", level))
	} else {
		list = append(list, fmt.Sprintf("%-7s", level))
	}
	if v, ok := data["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			list = append(list, t.Local().Format("01-02 15:04:05.000"))
		}
	}
	if v, ok := data["module"]; ok {
		list = append(list, M("%-12s", v))
	} else if v, ok := data["file"]; ok {
		list = append(list, fmt.Sprintf("%-20s", v))
	}
	list = append(list, ":")
	if v, ok := data["reqid"].(string); ok && v != "" {
		list = append(list, M("%s", v))
	}
	msg := fmt.Sprint(data["message"])
	if isError {
		msg = R(msg)
	}
	list = append(list, msg)

	keys := make([]string, 0, len(data))
	for k := range data {
		if !skipFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		list = append(list, C(k)+"="+fmt.Sprint(data[k]))
	}

	var b strings.Builder
	b.WriteString(strings.Join(list, " "))
	b.WriteString("\n")
	if e, ok := data["error"]; ok && e != nil {
		b.WriteString("\t")
		b.WriteString(R(fmt.Sprint(e)))
		b.WriteString("\n")
	}
	return b.String()
}
