// Package testutil echo 路由测试辅助函数
package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResponseRecorder 包装了 httptest.ResponseRecorder 以提供额外的辅助方法
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// BodyJson 将 JSON 响应体解析为 map[string]interface{}
func (r *ResponseRecorder) BodyJson() (map[string]interface{}, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(r.Body.Bytes(), &response); err != nil {
		return nil, err
	}
	return response, nil
}

// BodyArrayJson 将 JSON 响应体解析为 []map[string]interface{}
func (r *ResponseRecorder) BodyArrayJson() ([]map[string]interface{}, error) {
	var response []map[string]interface{}
	if err := json.Unmarshal(r.Body.Bytes(), &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Decode 将 JSON 响应体解析到 v
func (r *ResponseRecorder) Decode(v any) error {
	return json.Unmarshal(r.Body.Bytes(), v)
}

// NewRequest 对 echo 实例执行一次完整中间件链的模拟请求
func NewRequest(e *echo.Echo, method, path string, body io.Reader) *ResponseRecorder {
	return NewRequestWithHeader(e, method, path, body, nil)
}

// NewRequestWithHeader 有请求体时默认 Content-Type 为 JSON, header 中的值会追加
func NewRequestWithHeader(e *echo.Echo, method, path string, body io.Reader, header http.Header) *ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()

	if body != nil && header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range header {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	e.ServeHTTP(rec, req)
	return &ResponseRecorder{rec}
}

// Get 执行一个带查询参数的 GET 请求
func Get(e *echo.Echo, path string, queryParams url.Values) *ResponseRecorder {
	if queryParams != nil {
		path = path + "?" + queryParams.Encode()
	}
	return NewRequest(e, http.MethodGet, path, nil)
}

// Post 执行一个带 JSON 字符串主体的 POST 请求
func Post(e *echo.Echo, path string, jsonBody string) *ResponseRecorder {
	return NewRequest(e, http.MethodPost, path, strings.NewReader(jsonBody))
}

// Put 执行一个带 JSON 字符串主体的 PUT 请求
func Put(e *echo.Echo, path string, jsonBody string) *ResponseRecorder {
	return NewRequest(e, http.MethodPut, path, strings.NewReader(jsonBody))
}

// Delete 执行一个 DELETE 请求
func Delete(e *echo.Echo, path string) *ResponseRecorder {
	return NewRequest(e, http.MethodDelete, path, nil)
}

// FormFile multipart 中的一个文件
type FormFile struct {
	Field    string
	Filename string
	Data     []byte
}

// PostMultipart 执行一个 multipart/form-data 的 POST 请求, file 为 nil 时只提交字段
func PostMultipart(e *echo.Echo, path string, fields map[string]string, file *FormFile) *ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			panic(err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			panic(err)
		}
		if _, err := part.Write(file.Data); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}

	header := http.Header{}
	header.Set(echo.HeaderContentType, w.FormDataContentType())
	return NewRequestWithHeader(e, http.MethodPost, path, &buf, header)
}
