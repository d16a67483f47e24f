package orm

import "context"

type contextKey string

const reqIDKey = contextKey("reqid")

// SkipLogSQL 作为 reqid 时不输出 SQL 日志
const SkipLogSQL = "_skip_sql_"

func WithReqID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, reqIDKey, reqID)
}

func GetReqID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(reqIDKey).(string); ok {
		return v
	}
	return ""
}
