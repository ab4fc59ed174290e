package ctxutil

import "context"

type subjectKeyType struct{}
type requestIDKeyType struct{}

var (
	subjectKey   = subjectKeyType{}
	requestIDKey = requestIDKeyType{}
)

// WithSubject 注入调用方标识（token subject）
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, subjectKey, subject)
}

// Subject 读取调用方标识；未鉴权时返回空串和 false
func Subject(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(subjectKey).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// WithRequestID 注入请求 ID
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID 读取请求 ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
