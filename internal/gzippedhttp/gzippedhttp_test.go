package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, data []byte) string {
	t.Helper()

	reader, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer reader.Close()

	plain, err := io.ReadAll(reader)
	require.NoError(t, err)

	return string(plain)
}

func TestGzipResponseCompressesAnyStatus(t *testing.T) {
	testCases := []struct {
		name         string
		statusCode   int
		body         string
		writesHeader bool
	}{
		{
			name:         "ok_with_explicit_header",
			statusCode:   http.StatusOK,
			body:         `{"status":"ok"}`,
			writesHeader: true,
		},
		{
			name:         "unauthorized_error_body",
			statusCode:   http.StatusUnauthorized,
			body:         `{"error":"unauthorized"}`,
			writesHeader: true,
		},
		{
			name:         "internal_error_body",
			statusCode:   http.StatusInternalServerError,
			body:         `{"status":"error","error":"connection refused"}`,
			writesHeader: true,
		},
		{
			name:         "implicit_200_without_write_header",
			statusCode:   http.StatusOK,
			body:         "plain banner",
			writesHeader: false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			handler := GzipResponse(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
				if testCase.writesHeader {
					response.WriteHeader(testCase.statusCode)
				}
				_, _ = response.Write([]byte(testCase.body))
			}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set("Accept-Encoding", "gzip")
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.statusCode, recorder.Code)
			assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))
			assert.Equal(t, testCase.body, gunzip(t, recorder.Body.Bytes()))
		})
	}
}

func TestGzipResponseSkippedWithoutAcceptEncoding(t *testing.T) {
	handler := GzipResponse(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		_, _ = response.Write([]byte("plain"))
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Empty(t, recorder.Header().Get("Content-Encoding"))
	assert.Equal(t, "plain", recorder.Body.String())
}

func TestUngzipRequestDecompressesBody(t *testing.T) {
	var received string
	handler := UngzipRequest(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		received = string(body)
	}))

	var compressed bytes.Buffer
	writer := gzip.NewWriter(&compressed)
	_, err := writer.Write([]byte(`{"title":"T1"}`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/notes", &compressed)
	request.Header.Set("Content-Encoding", "gzip")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, `{"title":"T1"}`, received)
}

func TestUngzipRequestRejectsMalformedBody(t *testing.T) {
	handler := UngzipRequest(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	request := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader("not gzip at all"))
	request.Header.Set("Content-Encoding", "gzip")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, recorder.Body.String())
}
